package reservation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bookify/models"

	"go.uber.org/zap"
)

// firstAvailableScanMonths bounds the forward scan for the first bookable
// date when the visitor enters the datetime step with nothing selected.
const firstAvailableScanMonths = 3

const fetchTimeout = 15 * time.Second

// Workflow drives the method -> provider -> date/time -> review booking
// steps for one visitor. All state lives in a single BookingState guarded
// by one mutex; provider-month fetches run asynchronously and carry a
// generation token so a stale response never overwrites newer state.
type Workflow struct {
	mu sync.Mutex

	logger *zap.Logger
	source ProviderSource
	cart   *Coordinator
	events emitter

	state models.BookingState
	loc   *time.Location
	now   func() time.Time

	// Optional override for candidate start-time stepping; zero means
	// back-to-back slots of the full service duration.
	slotInterval int

	fetchGen  uint64
	fetchDone func() // test hook, invoked after an async fetch settles
}

// NewWorkflow builds a workflow bound to a provider source and a cart
// coordinator, rendering all times in the given IANA timezone.
func NewWorkflow(source ProviderSource, cart *Coordinator, timezone string, logger *zap.Logger) (*Workflow, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, NewValidationError("unknown timezone %q", timezone)
	}
	w := &Workflow{
		logger: logger,
		source: source,
		cart:   cart,
		loc:    loc,
		now:    time.Now,
	}
	w.state.Timezone = timezone
	w.state.CurrentStep = 1
	return w, nil
}

// Subscribe registers a change listener.
func (w *Workflow) Subscribe(fn Listener) {
	w.events.subscribe(fn)
}

// Snapshot returns a copy of the current booking state for presentation.
func (w *Workflow) Snapshot() models.BookingState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyStateLocked()
}

func (w *Workflow) copyStateLocked() models.BookingState {
	s := w.state
	s.Steps = append([]models.Step(nil), w.state.Steps...)
	s.Days = append([]models.CalendarDay(nil), w.state.Days...)
	s.Slots = append([]models.Slot(nil), w.state.Slots...)
	s.Providers = append([]models.Provider(nil), w.state.Providers...)
	if w.state.SelectedSlot != nil {
		slot := *w.state.SelectedSlot
		s.SelectedSlot = &slot
	}
	if w.state.SelectedProvider != nil {
		p := *w.state.SelectedProvider
		s.SelectedProvider = &p
	}
	return s
}

// SetService resets the workflow for a freshly chosen service. A service
// exposing exactly one reservation method has it auto-selected.
func (w *Workflow) SetService(svc models.Service) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state.Service = &svc
	w.state.SelectedMethod = ""
	w.state.SelectedProvider = nil
	w.state.Providers = nil
	w.clearDateSelectionLocked()
	w.state.CurrentStep = 1
	w.state.IsMultiDay = svc.MultiDay

	now := w.now().In(w.loc)
	w.state.Current = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, w.loc)

	if len(svc.ReservationMethods) == 1 {
		w.state.SelectedMethod = svc.ReservationMethods[0]
	}
	w.deriveStepsLocked()
	w.rebuildCalendarLocked()
	w.events.emit(EventSteps)
}

// deriveStepsLocked recomputes the active step sequence: method only when
// the service exposes a real choice, provider only when the chosen method
// requires picking one, datetime and review always.
func (w *Workflow) deriveStepsLocked() {
	svc := w.state.Service
	if svc == nil {
		w.state.Steps = []models.Step{{Name: models.StepReview, Label: "Review & Confirm"}}
		w.state.CurrentStep = 1
		return
	}

	var active []models.Step
	if len(svc.ReservationMethods) > 1 {
		active = append(active, models.Step{Name: models.StepMethod, Label: "Choose Reservation Type"})
	}
	if methodRequiresProvider(w.state.SelectedMethod) {
		active = append(active, models.Step{Name: models.StepProvider, Label: "Choose Provider"})
	}
	dtLabel := "Choose Date & Time"
	if w.state.IsMultiDay {
		dtLabel = "Choose Date Range"
	}
	active = append(active,
		models.Step{Name: models.StepDatetime, Label: dtLabel},
		models.Step{Name: models.StepReview, Label: "Review & Confirm"},
	)

	w.state.Steps = active
	if w.state.CurrentStep > len(active) {
		w.state.CurrentStep = len(active)
	}
	if w.state.CurrentStep < 1 {
		w.state.CurrentStep = 1
	}
}

func methodRequiresProvider(method string) bool {
	return strings.Contains(method, "SPECIFIC")
}

func (w *Workflow) currentStepNameLocked() string {
	if w.state.CurrentStep < 1 || w.state.CurrentStep > len(w.state.Steps) {
		return ""
	}
	return w.state.Steps[w.state.CurrentStep-1].Name
}

func (w *Workflow) stepNumberLocked(name string) int {
	for i, st := range w.state.Steps {
		if st.Name == name {
			return i + 1
		}
	}
	return 0
}

// CanProceed reports whether the current step's completion predicate holds.
func (w *Workflow) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canProceedLocked()
}

func (w *Workflow) canProceedLocked() bool {
	switch w.currentStepNameLocked() {
	case models.StepMethod:
		return w.state.SelectedMethod != ""
	case models.StepProvider:
		return w.state.SelectedProvider != nil
	case models.StepDatetime:
		if w.state.IsMultiDay {
			return w.state.StartDate != "" && w.state.EndDate != "" && w.state.SelectedSlot != nil
		}
		return w.state.SelectedDate != "" && w.state.SelectedSlot != nil
	case models.StepReview:
		return true
	default:
		return false
	}
}

// NextStep advances the cursor by one. A failed completion predicate makes
// this a no-op. Entering the datetime step kicks off the availability
// fetch for the visible month and, when nothing is selected yet, the
// first-available discovery.
func (w *Workflow) NextStep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.CurrentStep >= len(w.state.Steps) || !w.canProceedLocked() {
		return
	}
	w.state.CurrentStep++
	if w.currentStepNameLocked() == models.StepDatetime {
		w.enterDatetimeLocked()
	}
	w.events.emit(EventSteps)
}

// PrevStep moves the cursor back one step. The step moved back to loses
// its own selection and everything downstream of it.
func (w *Workflow) PrevStep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.CurrentStep <= 1 {
		return
	}
	target := w.state.Steps[w.state.CurrentStep-2].Name
	w.clearOwnAndDownstreamLocked(target)
	w.state.CurrentStep--
	w.deriveStepsLocked()
	w.rebuildCalendarLocked()
	w.events.emit(EventSteps)
}

// GoToStep jumps straight to step n (1-based). A backward jump clears every
// step strictly between the target and the departed step; a forward jump
// clears nothing.
func (w *Workflow) GoToStep(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.goToStepLocked(n)
}

func (w *Workflow) goToStepLocked(n int) {
	if n < 1 || n > len(w.state.Steps) {
		return
	}
	if n < w.state.CurrentStep {
		for i := w.state.CurrentStep - 1; i > n; i-- {
			w.clearOwnAndDownstreamLocked(w.state.Steps[i-1].Name)
		}
	}
	w.state.CurrentStep = n
	w.deriveStepsLocked()
	if w.currentStepNameLocked() == models.StepDatetime {
		w.enterDatetimeLocked()
	}
	w.events.emit(EventSteps)
}

// clearOwnAndDownstreamLocked wipes a step's own selection and everything
// chosen after it. Clearing the method also removes a provider-step
// selection, clearing the provider wipes the date/slot, and so on.
func (w *Workflow) clearOwnAndDownstreamLocked(name string) {
	switch name {
	case models.StepMethod:
		w.state.SelectedMethod = ""
		fallthrough
	case models.StepProvider:
		w.state.SelectedProvider = nil
		fallthrough
	case models.StepDatetime:
		w.clearDateSelectionLocked()
	}
}

func (w *Workflow) clearDateSelectionLocked() {
	w.state.SelectedDate = ""
	w.state.StartDate = ""
	w.state.EndDate = ""
	w.state.Slots = nil
	w.state.SelectedSlot = nil
}

func (w *Workflow) enterDatetimeLocked() {
	if w.state.SelectedDate == "" && w.state.StartDate == "" {
		w.scheduleFirstAvailableLocked()
	} else {
		w.scheduleMonthFetchLocked()
	}
}

// SelectMethod records the reservation method, clears downstream
// selections and re-derives the step sequence. With advance set, the
// workflow auto-advances: a SPECIFIC method with exactly one matching
// provider selects it and jumps straight to datetime.
func (w *Workflow) SelectMethod(ctx context.Context, method string, advance bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	svc := w.state.Service
	if svc == nil {
		return NewValidationError("no service selected")
	}
	if !containsString(svc.ReservationMethods, method) {
		return NewValidationError("service does not offer reservation method %q", method)
	}

	w.state.SelectedProvider = nil
	w.clearDateSelectionLocked()
	w.state.SelectedMethod = method
	w.deriveStepsLocked()

	if methodRequiresProvider(method) {
		if err := w.loadProvidersLocked(ctx); err != nil {
			return err
		}
		if advance && len(w.state.Providers) == 1 {
			p := w.state.Providers[0]
			w.state.SelectedProvider = &p
			w.goToStepLocked(w.stepNumberLocked(models.StepDatetime))
			return nil
		}
	} else if advance {
		w.goToStepLocked(w.stepNumberLocked(models.StepDatetime))
		return nil
	}

	if advance && w.state.CurrentStep < len(w.state.Steps) {
		w.state.CurrentStep++
		if w.currentStepNameLocked() == models.StepDatetime {
			w.enterDatetimeLocked()
		}
	}
	w.events.emit(EventSteps)
	return nil
}

// loadProvidersLocked fetches the providers able to serve the service over
// the visible month. Runs synchronously: workflow mutations are a single
// logical queue, so the session lock is simply held across the call.
func (w *Workflow) loadProvidersLocked(ctx context.Context) error {
	svc := w.state.Service
	first := w.visibleMonthLocked()
	providers, err := w.source.ProvidersForRange(ctx, svc.ID, first.Unix(), first.AddDate(0, 1, 0).Unix())
	if err != nil {
		w.logger.Error("provider load failed", zap.String("serviceID", svc.ID), zap.Error(err))
		return err
	}
	w.state.Providers = providers
	return nil
}

// SelectProvider picks one of the loaded providers and invalidates any
// date/slot chosen against a different provider's calendar.
func (w *Workflow) SelectProvider(providerID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var found *models.Provider
	for i := range w.state.Providers {
		if w.state.Providers[i].ID == providerID {
			p := w.state.Providers[i]
			found = &p
			break
		}
	}
	if found == nil {
		return &NotFoundError{Code: "providerNotFound", Message: fmt.Sprintf("provider %q is not in the loaded provider list", providerID)}
	}

	w.state.SelectedProvider = found
	w.clearDateSelectionLocked()
	if w.currentStepNameLocked() == models.StepDatetime {
		w.scheduleFirstAvailableLocked()
	}
	w.events.emit(EventSelection)
	return nil
}

// SelectDate handles a click on a calendar cell, by its "2006-01-02" ISO
// date. Blank or unavailable cells are a silent no-op. Multi-day services
// collect a range: first click starts it, second completes it (swapping so
// start <= end), a third click begins a fresh range.
func (w *Workflow) SelectDate(iso string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cell := w.findCellLocked(iso)
	if cell == nil || cell.Blank || !cell.Available {
		return
	}

	if w.state.IsMultiDay {
		switch {
		case w.state.StartDate == "":
			w.state.StartDate = iso
			w.state.SelectedDate = iso
			w.state.EndDate = ""
			w.state.SelectedSlot = nil
		case w.state.EndDate == "":
			if iso < w.state.StartDate {
				w.state.EndDate = w.state.StartDate
				w.state.StartDate = iso
			} else {
				w.state.EndDate = iso
			}
			w.buildRangeSlotLocked()
		default:
			w.state.StartDate = iso
			w.state.SelectedDate = iso
			w.state.EndDate = ""
			w.state.Slots = nil
			w.state.SelectedSlot = nil
		}
	} else {
		w.state.SelectedSlot = nil
		w.state.SelectedDate = iso
		w.regenerateSlotsLocked()
	}

	w.rebuildCalendarLocked()
	w.events.emit(EventSelection)
}

func (w *Workflow) findCellLocked(iso string) *models.CalendarDay {
	for i := range w.state.Days {
		if !w.state.Days[i].Blank && w.state.Days[i].ISO == iso {
			return &w.state.Days[i]
		}
	}
	return nil
}

// buildRangeSlotLocked synthesizes the single full-day slot covering
// [start 00:00, end+1d 00:00) in the active timezone.
func (w *Workflow) buildRangeSlotLocked() {
	svc := w.state.Service
	start, err := time.ParseInLocation("2006-01-02", w.state.StartDate, w.loc)
	if err != nil {
		return
	}
	end, err := time.ParseInLocation("2006-01-02", w.state.EndDate, w.loc)
	if err != nil {
		return
	}
	endNext := end.AddDate(0, 0, 1)

	from := ToUTCTimestamp(start.Year(), start.Month(), start.Day(), 0, w.loc)
	to := ToUTCTimestamp(endNext.Year(), endNext.Month(), endNext.Day(), 0, w.loc)

	slot := models.Slot{
		ID:         fmt.Sprintf("multi-day-slot-%d-%d", from, to),
		ServiceID:  svc.ID,
		From:       from,
		To:         to,
		Day:        w.state.StartDate,
		TimeText:   FormatDayRange(from, to, w.loc),
		IsMultiDay: true,
	}
	if w.state.SelectedProvider != nil {
		slot.ProviderID = w.state.SelectedProvider.ID
	}
	w.state.Slots = []models.Slot{slot}
	w.state.SelectedSlot = &slot
}

// SelectSlot picks one of the generated candidate slots by id.
func (w *Workflow) SelectSlot(slotID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.state.Slots {
		if w.state.Slots[i].ID == slotID {
			slot := w.state.Slots[i]
			w.state.SelectedSlot = &slot
			w.events.emit(EventSelection)
			return
		}
	}
}

// PrevMonth shifts the visible month back and refreshes availability.
func (w *Workflow) PrevMonth() { w.shiftMonth(-1) }

// NextMonth shifts the visible month forward and refreshes availability.
func (w *Workflow) NextMonth() { w.shiftMonth(1) }

func (w *Workflow) shiftMonth(months int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	cur := w.visibleMonthLocked()
	w.state.Current = cur.AddDate(0, months, 0)
	w.rebuildCalendarLocked()
	if w.currentStepNameLocked() == models.StepDatetime {
		w.scheduleMonthFetchLocked()
	}
	w.events.emit(EventCalendar)
}

// SetTimezone switches the active display zone. Slot boundaries depend on
// the zone, so the selected day's slots are regenerated; with nothing
// selected the first-available discovery is re-run. Same zone is a no-op.
func (w *Workflow) SetTimezone(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if name == w.state.Timezone {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return NewValidationError("unknown timezone %q", name)
	}
	w.loc = loc
	w.state.Timezone = name
	w.rebuildCalendarLocked()

	if w.currentStepNameLocked() == models.StepDatetime {
		switch {
		case w.state.IsMultiDay && w.state.StartDate != "" && w.state.EndDate != "":
			w.buildRangeSlotLocked()
		case !w.state.IsMultiDay && w.state.SelectedDate != "":
			w.state.SelectedSlot = nil
			w.regenerateSlotsLocked()
		case w.state.SelectedDate == "" && w.state.StartDate == "":
			w.scheduleFirstAvailableLocked()
		}
	}
	w.events.emit(EventCalendar)
	return nil
}

// AddToCart snapshots the selected slot with service/provider metadata
// into the cart, then resets the date selection and the step cursor so the
// visitor can book another part.
func (w *Workflow) AddToCart(ctx context.Context) error {
	w.mu.Lock()

	svc := w.state.Service
	slot := w.state.SelectedSlot
	if svc == nil || slot == nil {
		w.mu.Unlock()
		return NewValidationError("no slot selected")
	}

	var dateText string
	if w.state.IsMultiDay && slot.IsMultiDay {
		dateText = FormatDayRange(slot.From, slot.To, w.loc)
	} else {
		day, err := time.ParseInLocation("2006-01-02", slot.Day, w.loc)
		if err != nil {
			day = time.Unix(slot.From, 0).In(w.loc)
		}
		dateText = day.Format("Mon, Jan 2, 2006")
	}

	part := models.CartPart{
		ID:                newPartID(),
		ServiceID:         svc.ID,
		ServiceName:       svc.Name,
		DateText:          dateText,
		From:              slot.From,
		To:                slot.To,
		TimeText:          slot.TimeText,
		IsMultiDay:        w.state.IsMultiDay && (w.state.EndDate != "" || slot.IsMultiDay),
		ReservationMethod: w.state.SelectedMethod,
	}
	if w.state.SelectedProvider != nil {
		part.ProviderID = w.state.SelectedProvider.ID
	}

	w.clearDateSelectionLocked()
	w.state.CurrentStep = 1
	if len(svc.ReservationMethods) > 1 {
		w.state.SelectedMethod = ""
		w.deriveStepsLocked()
	}
	w.rebuildCalendarLocked()
	w.mu.Unlock()

	w.cart.Add(ctx, part)
	w.events.emit(EventCart)
	return nil
}

// --- asynchronous availability fetches ---

func (w *Workflow) visibleMonthLocked() time.Time {
	cur := w.state.Current
	if cur.IsZero() {
		now := w.now().In(w.loc)
		cur = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, w.loc)
	}
	return time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, w.loc)
}

// scheduleMonthFetchLocked launches the provider fetch for the visible
// month. The generation token makes a response that lost the race (the
// visitor already navigated elsewhere) a no-op instead of repopulating
// stale availability.
func (w *Workflow) scheduleMonthFetchLocked() {
	svc := w.state.Service
	if svc == nil {
		return
	}
	w.fetchGen++
	gen := w.fetchGen
	first := w.visibleMonthLocked()
	w.state.Loading = true
	go w.runMonthFetch(gen, svc.ID, first.Unix(), first.AddDate(0, 1, 0).Unix())
}

func (w *Workflow) runMonthFetch(gen uint64, serviceID string, from, to int64) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	providers, err := w.source.ProvidersForRange(ctx, serviceID, from, to)

	w.mu.Lock()
	defer w.finishFetchLocked()
	if gen != w.fetchGen {
		return // superseded by a newer request
	}
	w.state.Loading = false
	if err != nil {
		w.logger.Error("month availability fetch failed",
			zap.String("serviceID", serviceID), zap.Error(err))
		return
	}
	w.state.Providers = providers
	w.rebuildCalendarLocked()
	w.events.emit(EventCalendar)
}

// scheduleFirstAvailableLocked launches the forward scan for the first
// date with availability, starting at today and covering up to three
// months.
func (w *Workflow) scheduleFirstAvailableLocked() {
	svc := w.state.Service
	if svc == nil {
		return
	}
	w.fetchGen++
	gen := w.fetchGen
	w.state.Loading = true
	go w.runFirstAvailable(gen, *svc)
}

func (w *Workflow) runFirstAvailable(gen uint64, svc models.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	w.mu.Lock()
	loc := w.loc
	now := w.now()
	selectedID := ""
	if w.state.SelectedProvider != nil {
		selectedID = w.state.SelectedProvider.ID
	}
	w.mu.Unlock()

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	startMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	var foundDay time.Time
	var foundProviders []models.Provider
	for i := 0; i < firstAvailableScanMonths && foundDay.IsZero(); i++ {
		monthFirst := startMonth.AddDate(0, i, 0)
		monthEnd := monthFirst.AddDate(0, 1, 0)
		providers, err := w.source.ProvidersForRange(ctx, svc.ID, monthFirst.Unix(), monthEnd.Unix())
		if err != nil {
			w.logger.Error("first-available fetch failed", zap.String("serviceID", svc.ID), zap.Error(err))
			break
		}
		candidates := filterProviders(providers, selectedID)
		for day := laterOf(today, monthFirst); day.Before(monthEnd); day = day.AddDate(0, 0, 1) {
			if HasAvailableSlots(candidates, svc.ID, day, svc.Durations, loc, now) {
				foundDay = day
				foundProviders = providers
				break
			}
		}
	}

	w.mu.Lock()
	defer w.finishFetchLocked()
	if gen != w.fetchGen {
		return
	}
	w.state.Loading = false
	if foundDay.IsZero() {
		w.rebuildCalendarLocked()
		w.events.emit(EventCalendar)
		return
	}

	iso := foundDay.Format("2006-01-02")
	w.state.Current = time.Date(foundDay.Year(), foundDay.Month(), 1, 0, 0, 0, 0, w.loc)
	w.state.Providers = foundProviders
	if w.state.IsMultiDay {
		w.state.StartDate = iso
		w.state.SelectedDate = iso
	} else {
		w.state.SelectedDate = iso
		w.regenerateSlotsLocked()
	}
	w.rebuildCalendarLocked()
	w.events.emit(EventCalendar)
}

func (w *Workflow) finishFetchLocked() {
	done := w.fetchDone
	w.mu.Unlock()
	if done != nil {
		done()
	}
}

// --- helpers ---

func (w *Workflow) activeProvidersLocked() []models.Provider {
	if w.state.SelectedProvider != nil {
		return filterProviders(w.state.Providers, w.state.SelectedProvider.ID)
	}
	return w.state.Providers
}

func filterProviders(providers []models.Provider, id string) []models.Provider {
	if id == "" {
		return providers
	}
	var out []models.Provider
	for _, p := range providers {
		if p.ID == id {
			out = append(out, p)
		}
	}
	return out
}

func (w *Workflow) rebuildCalendarLocked() {
	svc := w.state.Service
	if svc == nil {
		w.state.Days = nil
		w.state.MonthYear = ""
		return
	}
	month := w.visibleMonthLocked()
	w.state.Current = month
	w.state.MonthYear = month.Format("January 2006")
	w.state.Days = BuildCalendar(
		month, w.activeProvidersLocked(), svc.ID, svc.Durations, w.loc,
		CalendarSelection{
			SelectedDate: w.state.SelectedDate,
			StartDate:    w.state.StartDate,
			EndDate:      w.state.EndDate,
		},
		w.now(),
	)
}

func (w *Workflow) regenerateSlotsLocked() {
	svc := w.state.Service
	if svc == nil || w.state.SelectedDate == "" {
		return
	}
	date, err := time.ParseInLocation("2006-01-02", w.state.SelectedDate, w.loc)
	if err != nil {
		return
	}
	w.state.Slots = ComputeSlotsForDate(
		w.activeProvidersLocked(), svc.ID, date, svc.Durations, w.loc, w.slotInterval, w.now())
	if w.state.SelectedSlot == nil && len(w.state.Slots) > 0 {
		slot := w.state.Slots[0]
		w.state.SelectedSlot = &slot
	}
	w.events.emit(EventSlots)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
