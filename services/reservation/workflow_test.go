package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func twoMethodService() models.Service {
	return models.Service{
		ID:                 "svc-1",
		Name:               "Deep Clean",
		Durations:          []models.DurationSegment{{Minutes: 60}},
		ReservationMethods: []string{models.MethodStandard, models.MethodSpecificProvider},
	}
}

func newTestWorkflow(t *testing.T, src ProviderSource) (*Workflow, *Coordinator, chan struct{}, chan struct{}) {
	t.Helper()
	cart, cartDone := testCoordinator(t, nil)
	wf, err := NewWorkflow(src, cart, "UTC", zap.NewNop())
	require.NoError(t, err)
	wf.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	wfDone := make(chan struct{}, 16)
	wf.fetchDone = func() { wfDone <- struct{}{} }
	return wf, cart, wfDone, cartDone
}

func currentStepName(s models.BookingState) string {
	if s.CurrentStep < 1 || s.CurrentStep > len(s.Steps) {
		return ""
	}
	return s.Steps[s.CurrentStep-1].Name
}

func TestSetServiceDerivesSteps(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	wf.SetService(twoMethodService())

	s := wf.Snapshot()
	require.Len(t, s.Steps, 3)
	assert.Equal(t, models.StepMethod, s.Steps[0].Name)
	assert.Equal(t, models.StepDatetime, s.Steps[1].Name)
	assert.Equal(t, models.StepReview, s.Steps[2].Name)
	assert.Equal(t, 1, s.CurrentStep)
	assert.Empty(t, s.SelectedMethod)
	assert.Equal(t, "June 2024", s.MonthYear)
}

func TestSetServiceSingleMethodAutoSelected(t *testing.T) {
	svc := twoMethodService()
	svc.ReservationMethods = []string{models.MethodStandard}

	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	wf.SetService(svc)

	s := wf.Snapshot()
	assert.Equal(t, models.MethodStandard, s.SelectedMethod)
	require.Len(t, s.Steps, 2, "no method step when there is no choice")
	assert.Equal(t, models.StepDatetime, s.Steps[0].Name)
}

func TestSelectMethodSpecificAddsProviderStep(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1"), weekdayProvider("p2")}}
	wf, _, _, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())

	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodSpecificProvider, false))

	s := wf.Snapshot()
	require.Len(t, s.Steps, 4)
	assert.Equal(t, models.StepProvider, s.Steps[1].Name)
	assert.Len(t, s.Providers, 2)
	assert.Nil(t, s.SelectedProvider, "two candidates means no auto-selection")
}

func TestSelectMethodUnknown(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	wf.SetService(twoMethodService())

	err := wf.SelectMethod(context.Background(), "ORDER", false)
	assert.True(t, IsValidation(err))
}

func TestSelectMethodAutoAdvanceFindsFirstAvailableDate(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())

	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	s := wf.Snapshot()
	assert.Equal(t, models.StepDatetime, currentStepName(s))
	// June 1st 2024 is a Saturday; the scan lands on Monday the 3rd.
	assert.Equal(t, "2024-06-03", s.SelectedDate)
	require.Len(t, s.Slots, 8)
	require.NotNil(t, s.SelectedSlot)
	assert.Equal(t, s.Slots[0].ID, s.SelectedSlot.ID)
	assert.False(t, s.Loading)
}

func TestSelectMethodAutoAdvanceSingleSpecificProvider(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())

	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodSpecificProvider, true))
	waitSignal(t, wfDone)

	s := wf.Snapshot()
	require.NotNil(t, s.SelectedProvider)
	assert.Equal(t, "p1", s.SelectedProvider.ID)
	assert.Equal(t, models.StepDatetime, currentStepName(s))
	assert.Equal(t, "2024-06-03", s.SelectedDate)
}

func TestSelectDateRegeneratesSlots(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	wf.SelectDate("2024-06-04")

	s := wf.Snapshot()
	assert.Equal(t, "2024-06-04", s.SelectedDate)
	require.Len(t, s.Slots, 8)
	assert.Equal(t, "2024-06-04", s.Slots[0].Day)
	require.NotNil(t, s.SelectedSlot)
	assert.Equal(t, s.Slots[0].ID, s.SelectedSlot.ID)
}

func TestSelectDateUnavailableCellIgnored(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	wf.SelectDate("2024-06-09") // Sunday, no working hours

	s := wf.Snapshot()
	assert.Equal(t, "2024-06-03", s.SelectedDate, "selection unchanged")
}

func TestNextStepRequiresCompletion(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	wf.SetService(twoMethodService())

	wf.NextStep()
	assert.Equal(t, 1, wf.Snapshot().CurrentStep, "no method chosen yet")

	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, false))
	wf.NextStep()
	assert.Equal(t, 2, wf.Snapshot().CurrentStep)
}

func TestPrevStepClearsTargetAndDownstream(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	wf.PrevStep()

	s := wf.Snapshot()
	assert.Equal(t, 1, s.CurrentStep)
	assert.Empty(t, s.SelectedMethod, "moving back to the method step drops its selection")
	assert.Empty(t, s.SelectedDate)
	assert.Empty(t, s.Slots)
	assert.Nil(t, s.SelectedSlot)
}

func TestGoToStepForwardKeepsSelections(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, false))

	wf.GoToStep(3)

	s := wf.Snapshot()
	assert.Equal(t, 3, s.CurrentStep)
	assert.Equal(t, models.MethodStandard, s.SelectedMethod)
}

func TestGoToStepBackwardClearsIntermediate(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodSpecificProvider, true))
	waitSignal(t, wfDone)

	// Now at datetime (step 3 of method/provider/datetime/review) with a
	// provider and date chosen. Jumping to the method step clears the
	// provider selection in between but keeps the method itself.
	wf.GoToStep(1)

	s := wf.Snapshot()
	assert.Equal(t, 1, s.CurrentStep)
	assert.Equal(t, models.MethodSpecificProvider, s.SelectedMethod)
	assert.Nil(t, s.SelectedProvider)
	assert.Empty(t, s.SelectedDate)
}

func TestMultiDayRangeSelection(t *testing.T) {
	svc := twoMethodService()
	svc.MultiDay = true
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(svc)
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	s := wf.Snapshot()
	assert.Equal(t, "2024-06-03", s.StartDate)
	assert.Empty(t, s.EndDate)
	assert.Nil(t, s.SelectedSlot)

	wf.SelectDate("2024-06-05")

	s = wf.Snapshot()
	assert.Equal(t, "2024-06-03", s.StartDate)
	assert.Equal(t, "2024-06-05", s.EndDate)
	require.NotNil(t, s.SelectedSlot)
	assert.True(t, s.SelectedSlot.IsMultiDay)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC).Unix(), s.SelectedSlot.From)
	assert.Equal(t, time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC).Unix(), s.SelectedSlot.To, "exclusive end covers the whole last day")

	for _, iso := range []string{"2024-06-03", "2024-06-04", "2024-06-05"} {
		var cell *models.CalendarDay
		for i := range s.Days {
			if s.Days[i].ISO == iso {
				cell = &s.Days[i]
				break
			}
		}
		require.NotNil(t, cell, iso)
		assert.True(t, cell.IsInRange, iso)
	}
}

func TestMultiDayThirdClickStartsNewRange(t *testing.T) {
	svc := twoMethodService()
	svc.MultiDay = true
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(svc)
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)
	wf.SelectDate("2024-06-05")

	wf.SelectDate("2024-06-07")

	s := wf.Snapshot()
	assert.Equal(t, "2024-06-07", s.StartDate)
	assert.Empty(t, s.EndDate)
	assert.Nil(t, s.SelectedSlot)
}

func TestMultiDaySelectionOrderIndependent(t *testing.T) {
	svc := twoMethodService()
	svc.MultiDay = true
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(svc)
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	// Reset the scan-picked start, then click the later day first.
	wf.SelectDate("2024-06-07")
	wf.SelectDate("2024-06-04")

	s := wf.Snapshot()
	assert.Equal(t, "2024-06-04", s.StartDate)
	assert.Equal(t, "2024-06-07", s.EndDate)
	require.NotNil(t, s.SelectedSlot)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC).Unix(), s.SelectedSlot.From)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC).Unix(), s.SelectedSlot.To)
}

func TestStaleMonthFetchDiscarded(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	blocking := newBlockingSource()
	wf.mu.Lock()
	wf.source = blocking
	wf.mu.Unlock()

	wf.NextMonth()
	waitSignal(t, blocking.started)
	wf.NextMonth()
	waitSignal(t, blocking.started)

	// The newer request answers first; the older answer must be dropped.
	blocking.release(1, []models.Provider{weekdayProvider("fresh")})
	waitSignal(t, wfDone)
	blocking.release(0, []models.Provider{weekdayProvider("stale")})
	waitSignal(t, wfDone)

	s := wf.Snapshot()
	require.Len(t, s.Providers, 1)
	assert.Equal(t, "fresh", s.Providers[0].ID)
	assert.Equal(t, "August 2024", s.MonthYear)
}

func TestMonthNavigation(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, _, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())

	wf.NextMonth()
	assert.Equal(t, "July 2024", wf.Snapshot().MonthYear)
	wf.PrevMonth()
	wf.PrevMonth()
	assert.Equal(t, "May 2024", wf.Snapshot().MonthYear)
}

func TestSetTimezoneRegeneratesSlots(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	require.NoError(t, wf.SetTimezone("Etc/GMT-3")) // fixed UTC+3

	s := wf.Snapshot()
	assert.Equal(t, "Etc/GMT-3", s.Timezone)
	require.NotEmpty(t, s.Slots)
	// 09:00 local in UTC+3 is 06:00 UTC.
	assert.Equal(t, time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC).Unix(), s.Slots[0].From)
	assert.Equal(t, "09:00 – 10:00", s.Slots[0].TimeText)
}

func TestSetTimezoneUnknown(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	err := wf.SetTimezone("Mars/Olympus")
	assert.True(t, IsValidation(err))
}

func TestAddToCartSnapshotsAndResets(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, cart, wfDone, cartDone := newTestWorkflow(t, src)
	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	require.NoError(t, wf.AddToCart(context.Background()))
	waitSignal(t, cartDone)

	parts := cart.Parts()
	require.Len(t, parts, 1)
	assert.Equal(t, "svc-1", parts[0].ServiceID)
	assert.Equal(t, "Deep Clean", parts[0].ServiceName)
	assert.Equal(t, models.MethodStandard, parts[0].ReservationMethod)
	assert.Equal(t, "Mon, Jun 3, 2024", parts[0].DateText)
	assert.NotEmpty(t, parts[0].ID)

	s := wf.Snapshot()
	assert.Equal(t, 1, s.CurrentStep)
	assert.Empty(t, s.SelectedDate)
	assert.Nil(t, s.SelectedSlot)
	assert.Empty(t, s.SelectedMethod, "multiple methods means the choice reopens")
}

func TestAddToCartWithoutSlot(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t, &stubSource{})
	wf.SetService(twoMethodService())
	err := wf.AddToCart(context.Background())
	assert.True(t, IsValidation(err))
}

func TestWorkflowEmitsEvents(t *testing.T) {
	src := &stubSource{providers: []models.Provider{weekdayProvider("p1")}}
	wf, _, wfDone, _ := newTestWorkflow(t, src)

	var mu sync.Mutex
	seen := map[Event]int{}
	wf.Subscribe(func(ev Event) {
		mu.Lock()
		seen[ev]++
		mu.Unlock()
	})

	wf.SetService(twoMethodService())
	require.NoError(t, wf.SelectMethod(context.Background(), models.MethodStandard, true))
	waitSignal(t, wfDone)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, seen[EventSteps])
	assert.Positive(t, seen[EventCalendar])
}
