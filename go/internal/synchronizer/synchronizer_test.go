package synchronizer_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/board/boardtest"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

var errOffline = errors.New("device offline")

type ruleCall struct {
	flag board.RuleFlag
	on   bool
}

type fakeDevice struct {
	mu        sync.Mutex
	state     board.Snapshot
	getErr    error
	modeReply *board.Snapshot
	number    int
	numberErr error
	ruleErr   error
	rules     []ruleCall
	polls     int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{state: boardtest.Classic(), number: 8}
}

func (d *fakeDevice) set(fn func(d *fakeDevice)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

func (d *fakeDevice) GetBoard(context.Context) (board.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
	if d.getErr != nil {
		return board.Snapshot{}, d.getErr
	}
	return d.state.Clone(), nil
}

func (d *fakeDevice) pollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

func (d *fakeDevice) setMode(s board.Snapshot) (board.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.getErr != nil {
		return board.Snapshot{}, d.getErr
	}
	if d.modeReply != nil {
		return d.modeReply.Clone(), nil
	}
	s.Session = d.state.Session
	d.state = s
	return s.Clone(), nil
}

func (d *fakeDevice) SetClassic(context.Context) (board.Snapshot, error) {
	return d.setMode(boardtest.Classic())
}

func (d *fakeDevice) SetExtension(context.Context) (board.Snapshot, error) {
	return d.setMode(boardtest.Extension())
}

func (d *fakeDevice) session(active bool) (board.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.getErr != nil {
		return board.Snapshot{}, d.getErr
	}
	d.state.Session.Active = active
	return d.state.Clone(), nil
}

func (d *fakeDevice) StartGame(context.Context) (board.Snapshot, error) { return d.session(true) }

func (d *fakeDevice) EndGame(context.Context) (board.Snapshot, error) { return d.session(false) }

func (d *fakeDevice) SelectNumber(_ context.Context, v int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.numberErr != nil {
		return 0, d.numberErr
	}
	d.state.Session.SelectedValue = v
	return v, nil
}

func (d *fakeDevice) RollDice(context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.numberErr != nil {
		return 0, d.numberErr
	}
	d.state.Session.SelectedValue = d.number
	return d.number, nil
}

func (d *fakeDevice) SetRuleFlag(_ context.Context, flag board.RuleFlag, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, ruleCall{flag: flag, on: on})
	return d.ruleErr
}

type recordingView struct {
	mu      sync.Mutex
	updates []synchronizer.Update
}

func (v *recordingView) Render(u synchronizer.Update) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updates = append(v.updates, u)
}

func (v *recordingView) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.updates)
}

func (v *recordingView) last(t *testing.T) synchronizer.Update {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	require.NotEmpty(t, v.updates, "nothing rendered")
	return v.updates[len(v.updates)-1]
}

type recordingObserver struct {
	mu      sync.Mutex
	changes []synchronizer.Change
	err     error
}

func (o *recordingObserver) Observe(_ context.Context, c synchronizer.Change) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, c)
	return o.err
}

func newSynchronizer(t *testing.T, opts ...synchronizer.Option) (*synchronizer.Synchronizer, *fakeDevice, *recordingView) {
	t.Helper()
	device := newFakeDevice()
	view := &recordingView{}
	s := synchronizer.New(device, view, synchronizer.DefaultConfig(), opts...)
	return s, device, view
}

func TestPollOnceReplacesSnapshotAndRendersOnce(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()

	require.NoError(t, s.PollOnce(ctx))
	require.Equal(t, 1, view.count())

	update := view.last(t)
	require.Equal(t, uint64(1), update.Generation)
	if diff := cmp.Diff(boardtest.Classic(), update.Snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, update.Frame.Tiles(), 19)

	next := boardtest.Extension()
	next.Session.Active = true
	next.Session.SelectedValue = 5
	device.set(func(d *fakeDevice) { d.state = next })

	require.NoError(t, s.PollOnce(ctx))
	require.Equal(t, 2, view.count())

	got, ok := s.Snapshot()
	require.True(t, ok)
	if diff := cmp.Diff(next, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, board.SizeExtended, view.last(t).Frame.Mode)
	require.True(t, view.last(t).Affordances.RollVisible)
}

func TestFailedPollKeepsPreviousState(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()

	require.NoError(t, s.PollOnce(ctx))
	before, _ := s.Snapshot()

	device.set(func(d *fakeDevice) { d.getErr = errOffline })
	require.ErrorIs(t, s.PollOnce(ctx), errOffline)
	require.ErrorIs(t, s.PollOnce(ctx), errOffline)

	after, _ := s.Snapshot()
	require.Equal(t, before, after)
	require.Equal(t, 1, view.count())

	status := s.Status()
	require.Equal(t, 2, status.ConsecutiveFailures)
	require.Equal(t, errOffline.Error(), status.LastError)
	require.Equal(t, uint64(1), status.Generation)

	device.set(func(d *fakeDevice) { d.getErr = nil })
	require.NoError(t, s.PollOnce(ctx))
	require.Zero(t, s.Status().ConsecutiveFailures)
	require.Equal(t, 2, view.count())
}

func TestSetModeAdoptsMatchingResponse(t *testing.T) {
	s, _, view := newSynchronizer(t)
	ctx := context.Background()

	require.NoError(t, s.SetMode(ctx, board.SizeExtended))
	require.Equal(t, 1, view.count())
	require.Equal(t, board.SizeExtended, view.last(t).Frame.Mode)

	require.NoError(t, s.SetMode(ctx, board.SizeStandard))
	require.Equal(t, board.SizeStandard, view.last(t).Frame.Mode)
}

func TestSetModeDiscardsStaleResponse(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, s.PollOnce(ctx))

	stale := boardtest.Classic()
	device.set(func(d *fakeDevice) { d.modeReply = &stale })

	err := s.SetMode(ctx, board.SizeExtended)
	require.ErrorIs(t, err, synchronizer.ErrModeMismatch)
	require.Equal(t, 1, view.count())

	got, _ := s.Snapshot()
	require.Equal(t, board.SizeStandard, got.Board.Mode)

	require.ErrorIs(t, s.SetMode(ctx, board.SizeMode(9)), board.ErrInvalidMode)
}

func TestStartAndEndGame(t *testing.T) {
	s, _, view := newSynchronizer(t)
	ctx := context.Background()

	require.NoError(t, s.StartGame(ctx))
	aff := view.last(t).Affordances
	require.True(t, aff.EndVisible)
	require.False(t, aff.ModeSwitchEnabled)
	require.False(t, aff.RuleTogglesEnabled)

	require.NoError(t, s.EndGame(ctx))
	aff = view.last(t).Affordances
	require.True(t, aff.StartVisible)
	require.True(t, aff.ModeSwitchEnabled)
	require.Equal(t, 2, view.count())
}

func TestSelectNumberReplacesOnlySelectedValue(t *testing.T) {
	s, _, view := newSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, s.PollOnce(ctx))
	before, _ := s.Snapshot()

	require.NoError(t, s.SelectNumber(ctx, 6))

	after, _ := s.Snapshot()
	require.Equal(t, before.WithSelectedValue(6), after)

	update := view.last(t)
	require.Equal(t, uint64(2), update.Generation)
	var lit []int
	for _, c := range update.Frame.Tiles() {
		if c.Highlighted {
			lit = append(lit, c.Index)
		}
	}
	require.Equal(t, []int{8, 9}, lit)
}

func TestSelectNumberRejectsOutOfRange(t *testing.T) {
	s, _, view := newSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, s.PollOnce(ctx))

	for _, v := range []int{0, 1, 13, -4} {
		require.ErrorIs(t, s.SelectNumber(ctx, v), synchronizer.ErrInvalidValue)
	}
	require.Equal(t, 1, view.count())
}

func TestRollDice(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()

	require.ErrorIs(t, s.RollDice(ctx), synchronizer.ErrNoSnapshot)
	require.Zero(t, view.count())

	require.NoError(t, s.PollOnce(ctx))
	device.set(func(d *fakeDevice) { d.number = 7 })
	require.NoError(t, s.RollDice(ctx))

	for _, c := range view.last(t).Frame.Tiles() {
		require.True(t, c.Highlighted, "robber highlights tile %d", c.Index)
	}
}

func TestFailedNumberResponseChangesNothing(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, s.PollOnce(ctx))

	device.set(func(d *fakeDevice) { d.numberErr = errOffline })
	require.ErrorIs(t, s.RollDice(ctx), errOffline)
	require.ErrorIs(t, s.SelectNumber(ctx, 4), errOffline)

	got, _ := s.Snapshot()
	require.Zero(t, got.Session.SelectedValue)
	require.Equal(t, 1, view.count())
}

func TestSetRuleFlagLeavesLocalStateAlone(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, s.PollOnce(ctx))

	require.NoError(t, s.SetRuleFlag(ctx, board.RuleManualDice, true))
	require.Equal(t, 1, view.count())
	got, _ := s.Snapshot()
	require.False(t, got.Session.Rules.ManualDice)
	require.Equal(t, []ruleCall{{flag: board.RuleManualDice, on: true}}, device.rules)

	device.set(func(d *fakeDevice) { d.ruleErr = errOffline })
	require.ErrorIs(t, s.SetRuleFlag(ctx, board.RuleEightSixCanTouch, false), errOffline)

	require.ErrorIs(t, s.SetRuleFlag(ctx, board.RuleFlag("bogus"), true), board.ErrUnknownRuleFlag)
	require.Len(t, device.rules, 2)
}

func TestObserversSeeEveryAdoptedSnapshot(t *testing.T) {
	failing := &recordingObserver{err: errors.New("store down")}
	recorder := &recordingObserver{}
	s, _, view := newSynchronizer(t, synchronizer.WithObservers(failing, recorder))
	ctx := context.Background()

	require.NoError(t, s.PollOnce(ctx))
	require.NoError(t, s.StartGame(ctx))
	require.NoError(t, s.SelectNumber(ctx, 9))

	require.Equal(t, 3, view.count())
	require.Len(t, failing.changes, 3)
	require.Len(t, recorder.changes, 3)

	first := recorder.changes[0]
	require.Nil(t, first.Previous)
	require.Equal(t, synchronizer.SourcePoll, first.Source)
	require.False(t, first.SelectedValueChanged())

	start := recorder.changes[1]
	require.True(t, start.SessionChanged())
	require.Equal(t, synchronizer.SourceStart, start.Source)

	sel := recorder.changes[2]
	require.Equal(t, uint64(3), sel.Generation)
	require.True(t, sel.SelectedValueChanged())
	require.Equal(t, 0, sel.Previous.Session.SelectedValue)
	require.Equal(t, 9, sel.Current.Session.SelectedValue)
}

func TestStartPollsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, device, view := newSynchronizer(t, synchronizer.WithClock(clock))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Stop)
	require.ErrorIs(t, s.Start(ctx), synchronizer.ErrAlreadyStarted)

	require.Eventually(t, func() bool { return view.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	device.set(func(d *fakeDevice) { d.getErr = errOffline })
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return s.Status().ConsecutiveFailures == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, view.count())

	device.set(func(d *fakeDevice) {
		d.getErr = nil
		d.state.Session.SelectedValue = 4
	})
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return view.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 4, view.last(t).Frame.SelectedValue)

	s.Stop()
	s.Stop()
	polls := device.pollCount()
	clock.Advance(5 * time.Second)
	require.Equal(t, polls, device.pollCount())
}

func TestStopBeforeStart(t *testing.T) {
	s, _, _ := newSynchronizer(t)
	s.Stop()
}

func TestRestartAfterStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, _, view := newSynchronizer(t, synchronizer.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.Eventually(t, func() bool { return view.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Stop)
	require.Eventually(t, func() bool { return view.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, uint64(2), view.last(t).Generation)
}

func TestConcurrentPollsAndActionsRenderInOrder(t *testing.T) {
	s, device, view := newSynchronizer(t)
	ctx := context.Background()
	require.NoError(t, s.PollOnce(ctx))

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(4)
		go func(i int) {
			defer wg.Done()
			next := boardtest.Classic()
			if i%2 == 0 {
				next = boardtest.Extension()
			}
			device.set(func(d *fakeDevice) {
				next.Session = d.state.Session
				d.state = next
			})
			assert.NoError(t, s.PollOnce(ctx))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.SelectNumber(ctx, board.MinValue+i%11))
		}(i)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RollDice(ctx))
		}()
		go func(i int) {
			defer wg.Done()
			mode := board.SizeStandard
			if i%3 == 0 {
				mode = board.SizeExtended
			}
			assert.NoError(t, s.SetMode(ctx, mode))
		}(i)
	}
	wg.Wait()

	view.mu.Lock()
	updates := append([]synchronizer.Update(nil), view.updates...)
	view.mu.Unlock()

	require.Len(t, updates, 1+4*rounds)
	for i, u := range updates {
		require.Equal(t, uint64(i+1), u.Generation, "renders must follow generation order")
		require.Len(t, u.Frame.Tiles(), u.Snapshot.Board.Mode.TileCount())
		require.Equal(t, u.Snapshot.Board.Mode, u.Frame.Mode)
		require.Equal(t, u.Snapshot.Session.SelectedValue, u.Frame.SelectedValue)
		require.NoError(t, u.Snapshot.Validate())
	}

	final, ok := s.Snapshot()
	require.True(t, ok)
	require.NoError(t, final.Validate())
	require.Equal(t, updates[len(updates)-1].Snapshot, final)
	require.Equal(t, uint64(len(updates)), s.Status().Generation)
}

func TestStatusHealthy(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.False(t, synchronizer.Status{}.Healthy(now, time.Minute))
	require.True(t, synchronizer.Status{LastSuccessAt: now.Add(-30 * time.Second)}.Healthy(now, time.Minute))
	require.False(t, synchronizer.Status{LastSuccessAt: now.Add(-2 * time.Minute)}.Healthy(now, time.Minute))
}

func jsonBody(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
