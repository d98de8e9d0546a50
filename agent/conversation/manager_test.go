package conversation

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

var monday = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type fakeCustomers struct {
	mu      sync.Mutex
	byPhone map[string]contractx.Customer
	upserts []contractx.Customer
	err     error
}

func (f *fakeCustomers) GetByPhone(ctx context.Context, phone, businessID string) (*contractx.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byPhone[businessID+"|"+phone]
	if !ok {
		return nil, contractx.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCustomers) Upsert(ctx context.Context, c contractx.Customer) (*contractx.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c.ID = "cust-1"
	f.upserts = append(f.upserts, c)
	return &c, nil
}

type fakeAppointments struct {
	created []contractx.Appointment
	err     error
}

func (f *fakeAppointments) Create(ctx context.Context, a contractx.Appointment) (*contractx.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	a.ID = "appt-1"
	f.created = append(f.created, a)
	return &a, nil
}

type fakeCalendar struct {
	avail  contractx.Availability
	err    error
	events []contractx.EventRequest
}

func (f *fakeCalendar) FindSlots(ctx context.Context, q contractx.SlotQuery) (contractx.Availability, error) {
	return f.avail, f.err
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, ev contractx.EventRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, ev)
	return "evt-1", nil
}

type harness struct {
	manager      *Manager
	customers    *fakeCustomers
	appointments *fakeAppointments
	calendar     *fakeCalendar
	tenant       contractx.Tenant
}

func newHarness() *harness {
	h := &harness{
		customers:    &fakeCustomers{byPhone: map[string]contractx.Customer{}},
		appointments: &fakeAppointments{},
		calendar:     &fakeCalendar{},
		tenant:       contractx.DefaultTenant("default_business"),
	}
	h.tenant.Name = "Raven Plumbing"
	h.rebuild()
	return h
}

func (h *harness) rebuild(opts ...Option) {
	base := []Option{
		WithCustomers(h.customers),
		WithAppointments(h.appointments),
		WithCalendar(h.calendar),
		WithClock(func() time.Time { return monday }),
	}
	h.manager = NewManager(append(base, opts...)...)
}

func (h *harness) say(t *testing.T, sess *statex.Session, text string) Result {
	t.Helper()
	res, err := h.manager.HandleInput(context.Background(), sess, h.tenant, text)
	if err != nil {
		t.Fatalf("HandleInput(%q) error = %v", text, err)
	}
	if err := res.Session.Validate(); err != nil {
		t.Fatalf("session invalid after %q: %v", text, err)
	}
	return res
}

func newSession(id, phone string) *statex.Session {
	return statex.NewSession(id, "default_business", phone, "Phone", monday)
}

func assertContains(t *testing.T, reply, want string) {
	t.Helper()
	if !strings.Contains(strings.ToLower(reply), want) {
		t.Fatalf("reply %q does not contain %q", reply, want)
	}
}

func TestHappyPathStandardJob(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("test", "555-0000")

	res := h.say(t, sess, "")
	assertContains(t, res.Reply, "assistant")
	if sess.Stage != statex.StageAskName || sess.NoInputCount != 0 {
		t.Fatalf("after greeting stage=%s no_input=%d", sess.Stage, sess.NoInputCount)
	}

	res = h.say(t, sess, "John Smith")
	assertContains(t, res.Reply, "what is the service address")
	if sess.CallerName != "John Smith" {
		t.Fatalf("CallerName = %q", sess.CallerName)
	}

	res = h.say(t, sess, "123 Main St, Merriam KS")
	assertContains(t, res.Reply, "briefly describe what's going on")
	if !strings.HasPrefix(sess.Address, "123 Main St") {
		t.Fatalf("Address = %q", sess.Address)
	}

	res = h.say(t, sess, "Leaking faucet in the kitchen")
	assertContains(t, res.Reply, "thanks for the details")
	if sess.Stage != statex.StageAskSchedule || sess.IsEmergency {
		t.Fatalf("stage=%s emergency=%v", sess.Stage, sess.IsEmergency)
	}
	if sess.ServiceType != "fixture_or_leak_repair" || sess.DurationMinutes != 60 || sess.QuoteLow == nil {
		t.Fatalf("service=%s duration=%d quote=%v", sess.ServiceType, sess.DurationMinutes, sess.QuoteLow)
	}

	res = h.say(t, sess, "yes")
	assertContains(t, res.Reply, "does that time work for you")
	if sess.Stage != statex.StageConfirmSlot || sess.ProposedSlot == nil {
		t.Fatalf("stage=%s slot=%v", sess.Stage, sess.ProposedSlot)
	}
	if res.Outcome.SlotSource != contractx.SlotSourceGenerated {
		t.Fatalf("SlotSource = %q", res.Outcome.SlotSource)
	}

	res = h.say(t, sess, "yes")
	assertContains(t, res.Reply, "you're all set")
	if sess.Status != statex.StatusScheduled || sess.IsEmergency {
		t.Fatalf("status=%s emergency=%v", sess.Status, sess.IsEmergency)
	}
	if sess.AppointmentID != "appt-1" || sess.CalendarEventID != "evt-1" {
		t.Fatalf("appointment=%q event=%q", sess.AppointmentID, sess.CalendarEventID)
	}
	if len(h.appointments.created) != 1 || h.appointments.created[0].CustomerID != "cust-1" {
		t.Fatalf("appointments = %+v", h.appointments.created)
	}
	if !res.Outcome.Terminal() || res.Outcome.FromStage != statex.StageConfirmSlot {
		t.Fatalf("outcome = %+v", res.Outcome)
	}
}

func TestEmergencyFlagAndFollowup(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("test2", "555-1111")

	for _, u := range []string{"", "Jane Doe", "456 Elm St, KC MO"} {
		h.say(t, sess, u)
	}

	res := h.say(t, sess, "Basement is flooding and sewage backing up")
	if !sess.IsEmergency || sess.Stage != statex.StageAskSchedule || !sess.EmergencyConfirmationPending {
		t.Fatalf("emergency=%v stage=%s pending=%v", sess.IsEmergency, sess.Stage, sess.EmergencyConfirmationPending)
	}
	if sess.ServiceType != "drain_or_sewer" || sess.DurationMinutes < 60 {
		t.Fatalf("service=%s duration=%d", sess.ServiceType, sess.DurationMinutes)
	}
	if !sess.HasEmergencyReason("intent:emergency") || !sess.HasEmergencyReason("keyword:sewage") {
		t.Fatalf("reasons = %v", sess.EmergencyReasons)
	}
	if sess.IntentProvider != "heuristic" {
		t.Fatalf("IntentProvider = %q", sess.IntentProvider)
	}
	assertContains(t, res.Reply, "emergency")

	res = h.say(t, sess, "no, just take my info")
	assertContains(t, res.Reply, "won't schedule anything right now")
	if sess.Status != statex.StatusPendingFollowup || sess.ProposedSlot != nil || !sess.IsEmergency {
		t.Fatalf("status=%s slot=%v emergency=%v", sess.Status, sess.ProposedSlot, sess.IsEmergency)
	}
}

func TestGreetsReturningCustomer(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.customers.byPhone["default_business|555-9999"] = contractx.Customer{
		ID: "c-9", Name: "Existing Customer", Phone: "555-9999", Address: "789 Oak St, KC MO",
	}
	sess := newSession("test3", "555-9999")

	res := h.say(t, sess, "")
	assertContains(t, res.Reply, "assistant")
	assertContains(t, res.Reply, "worked with you before")
	if sess.Stage != statex.StageAskName || !sess.KnownCustomer {
		t.Fatalf("stage=%s known=%v", sess.Stage, sess.KnownCustomer)
	}
}

func TestReusesAddressForReturningCustomer(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.customers.byPhone["default_business|555-2222"] = contractx.Customer{
		ID: "c-2", Name: "Returning Customer", Phone: "555-2222", Address: "1010 Cedar St, Merriam KS",
	}
	sess := newSession("addr1", "555-2222")

	h.say(t, sess, "")
	res := h.say(t, sess, "Returning Customer")
	assertContains(t, res.Reply, "have your address as")
	assertContains(t, res.Reply, "1010 cedar st")
	if sess.Stage != statex.StageConfirmAddress {
		t.Fatalf("stage = %s, want CONFIRM_ADDRESS", sess.Stage)
	}

	h.say(t, sess, "yes that works")
	if sess.Stage != statex.StageAskProblem || !strings.HasPrefix(sess.Address, "1010 Cedar St") {
		t.Fatalf("stage=%s address=%q", sess.Stage, sess.Address)
	}
}

func TestSilenceAtAskAddressOffersStoredAddress(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("addr3", "555-3434")
	sess.Stage = statex.StageAskAddress
	sess.CallerName = "Pat Lee"
	sess.StoredAddress = "5 Main St"

	res := h.say(t, sess, "")
	assertContains(t, res.Reply, "5 main st")
	if sess.Stage != statex.StageConfirmAddress || sess.NoInputCount != 0 {
		t.Fatalf("stage=%s no_input=%d", sess.Stage, sess.NoInputCount)
	}
}

func TestConfirmAddressCorrection(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.customers.byPhone["default_business|555-3333"] = contractx.Customer{Address: "1 Old Rd"}
	sess := newSession("addr2", "555-3333")

	for _, u := range []string{"", "Pat Lee"} {
		h.say(t, sess, u)
	}
	if sess.Stage != statex.StageConfirmAddress {
		t.Fatalf("stage = %s, want CONFIRM_ADDRESS", sess.Stage)
	}
	h.say(t, sess, "no, I moved")
	if sess.Stage != statex.StageAskAddress || sess.StoredAddress != "" {
		t.Fatalf("stage=%s stored=%q", sess.Stage, sess.StoredAddress)
	}
	h.say(t, sess, "22 New Ave")
	if sess.Stage != statex.StageAskProblem || sess.Address != "22 New Ave" {
		t.Fatalf("stage=%s address=%q", sess.Stage, sess.Address)
	}
}

func TestTanklessJobDuration(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("s3", "555-4444")
	for _, u := range []string{"", "Sam Fox", "9 Birch Ln", "Navien tankless water heater install"} {
		h.say(t, sess, u)
	}
	if sess.ServiceType != "tankless_water_heater" || sess.DurationMinutes < 180 {
		t.Fatalf("service=%s duration=%d", sess.ServiceType, sess.DurationMinutes)
	}
}

func TestDurationOverrideAndEmergencyFloor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keywords  string
		emergency bool
		check     func(int) bool
	}{
		{name: "override applies", check: func(d int) bool { return d == 45 }},
		{name: "emergency floor wins", keywords: "backing up", emergency: true, check: func(d int) bool { return d >= 60 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.tenant.ServiceDurationConfig = "drain_or_sewer=45"
			h.tenant.EmergencyKeywords = tt.keywords
			sess := newSession("s4", "555-5555")
			for _, u := range []string{"", "Ann Ray", "5 Elm St", "main sewer line backing up"} {
				h.say(t, sess, u)
			}
			if sess.IsEmergency != tt.emergency || !tt.check(sess.DurationMinutes) {
				t.Fatalf("emergency=%v duration=%d", sess.IsEmergency, sess.DurationMinutes)
			}
		})
	}
}

func TestNoInputEndsAsFollowup(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("quiet", "555-6666")
	h.say(t, sess, "")

	for i := 1; i < DefaultMaxNoInput; i++ {
		res := h.say(t, sess, "   ")
		if !res.Outcome.NoInput || !res.Outcome.Reprompted || sess.Stage != statex.StageAskName {
			t.Fatalf("turn %d outcome=%+v stage=%s", i, res.Outcome, sess.Stage)
		}
		if sess.NoInputCount != i {
			t.Fatalf("NoInputCount = %d, want %d", sess.NoInputCount, i)
		}
	}

	h.say(t, sess, "")
	if sess.Stage != statex.StagePendingFollowup || sess.Status != statex.StatusPendingFollowup {
		t.Fatalf("stage=%s status=%s", sess.Stage, sess.Status)
	}
}

func TestSpeechResetsNoInputCount(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("quiet2", "555-6667")
	for _, u := range []string{"", "", "", "Kim Park"} {
		h.say(t, sess, u)
	}
	if sess.NoInputCount != 0 || sess.Stage != statex.StageAskAddress {
		t.Fatalf("no_input=%d stage=%s", sess.NoInputCount, sess.Stage)
	}
}

func TestCancelEndsWithoutBooking(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("cancel", "555-7777")
	for _, u := range []string{"", "Lee Wu"} {
		h.say(t, sess, u)
	}
	h.say(t, sess, "actually please cancel")
	if sess.Stage != statex.StageCompleted || sess.Status != statex.StatusCompleted {
		t.Fatalf("stage=%s status=%s", sess.Stage, sess.Status)
	}
	if len(h.appointments.created) != 0 {
		t.Fatal("cancel must not book")
	}
}

func TestEmergencyConfirmation(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("em", "555-8888")
	for _, u := range []string{"", "Max Ode", "77 Pine Rd", "pipe burst under the sink"} {
		h.say(t, sess, u)
	}
	before := sess.EmergencyConfidence

	res := h.say(t, sess, "yes please")
	if sess.Stage != statex.StageConfirmSlot || sess.EmergencyConfirmationPending {
		t.Fatalf("stage=%s pending=%v", sess.Stage, sess.EmergencyConfirmationPending)
	}
	if !sess.HasEmergencyReason("caller_confirmed") || sess.EmergencyConfidence <= before {
		t.Fatalf("confidence %v -> %v reasons=%v", before, sess.EmergencyConfidence, sess.EmergencyReasons)
	}
	// Emergencies may be booked the same day.
	if !sameDate(sess.ProposedSlot.Start, monday) {
		t.Fatalf("slot = %v, want today", sess.ProposedSlot)
	}
	assertContains(t, res.Reply, "earliest")
}

func TestEmergencyCorrectionClearsFlag(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("em2", "555-8889")
	for _, u := range []string{"", "Max Ode", "77 Pine Rd", "pipe burst under the sink"} {
		h.say(t, sess, u)
	}

	h.say(t, sess, "it's not an emergency")
	if sess.IsEmergency || sess.Stage != statex.StageAskSchedule {
		t.Fatalf("emergency=%v stage=%s", sess.IsEmergency, sess.Stage)
	}
	if !sess.HasEmergencyReason("caller_correction") {
		t.Fatalf("reasons = %v", sess.EmergencyReasons)
	}

	h.say(t, sess, "sure")
	if sess.IsEmergency {
		t.Fatal("old transcript keywords must not re-raise a corrected emergency")
	}
	if sess.Stage != statex.StageConfirmSlot || sameDate(sess.ProposedSlot.Start, monday) {
		t.Fatalf("stage=%s slot=%v", sess.Stage, sess.ProposedSlot)
	}
}

func TestRejectedSlotGetsAlternative(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("rej", "555-9990")
	for _, u := range []string{"", "Ida Moss", "3 Lake Dr", "toilet keeps running", "yes"} {
		h.say(t, sess, u)
	}
	first := *sess.ProposedSlot

	res := h.say(t, sess, "no, that doesn't work")
	if sess.Stage != statex.StageConfirmSlot || len(sess.RejectedSlots) != 1 {
		t.Fatalf("stage=%s rejected=%d", sess.Stage, len(sess.RejectedSlots))
	}
	if sess.ProposedSlot.Start.Equal(first.Start) {
		t.Fatal("alternative must differ from the rejected slot")
	}
	assertContains(t, res.Reply, "does that time work for you")

	h.say(t, sess, "no")
	h.say(t, sess, "nope")
	if sess.Stage != statex.StagePendingFollowup {
		t.Fatalf("stage = %s after repeated rejections", sess.Stage)
	}
}

func TestBookingFailuresStillSchedule(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("fail", "555-1212")
	for _, u := range []string{"", "Ola Nord", "8 Hill Ct", "drain is slow", "yes"} {
		h.say(t, sess, u)
	}

	boom := errors.New("down")
	h.customers.err = boom
	h.appointments.err = boom
	h.calendar.err = boom

	res := h.say(t, sess, "yes")
	if sess.Status != statex.StatusScheduled || sess.ProposedSlot == nil {
		t.Fatalf("status=%s slot=%v", sess.Status, sess.ProposedSlot)
	}
	if sess.AppointmentID != "" {
		t.Fatalf("AppointmentID = %q", sess.AppointmentID)
	}
	assertContains(t, res.Reply, "you're all set")
}

func TestCalendarFailureUsesFallbackSlot(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.calendar.err = errors.New("timeout")
	sess := newSession("fb", "555-1313")
	for _, u := range []string{"", "Bo Diaz", "4 Main St", "leaky faucet"} {
		h.say(t, sess, u)
	}
	res := h.say(t, sess, "yes")
	if res.Outcome.SlotSource != contractx.SlotSourceFallback || sess.Stage != statex.StageConfirmSlot {
		t.Fatalf("source=%s stage=%s", res.Outcome.SlotSource, sess.Stage)
	}
}

func TestTerminalStageIsStable(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("done", "555-1414")
	for _, u := range []string{"", "Cy Tran", "6 Oak Pl", "clogged drain", "yes", "yes"} {
		h.say(t, sess, u)
	}
	snapshot := *sess.ProposedSlot
	transcript := len(sess.Transcript)

	for _, u := range []string{"yes", "no", "", "cancel"} {
		h.say(t, sess, u)
		if sess.Stage != statex.StageScheduled || !sess.ProposedSlot.Start.Equal(snapshot.Start) {
			t.Fatalf("terminal session changed after %q: %s", u, sess.Stage)
		}
		if len(sess.Transcript) != transcript {
			t.Fatalf("transcript grew after %q: %v", u, sess.Transcript)
		}
	}
}

func TestReplayDoesNotAdvanceTwice(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("replay", "555-1515")
	h.say(t, sess, "")
	h.say(t, sess, "John Smith")

	res := h.say(t, sess, "John Smith")
	if sess.Stage != statex.StageAskAddress {
		t.Fatalf("stage = %s after replaying the name", sess.Stage)
	}
	assertContains(t, res.Reply, "service address")
}

func TestRandomDialoguesRespectStageGraph(t *testing.T) {
	t.Parallel()

	pool := []string{
		"", "John Smith", "my name is jane doe", "123 Main St, Merriam KS", "yes", "no", "maybe",
		"Basement is flooding", "Leaking faucet in the kitchen", "gas leak", "book it", "what are your hours?",
		"reschedule please", "66101", "sure", "nope", "I smell gas", "hello",
	}
	rng := rand.New(rand.NewSource(7))
	h := newHarness()

	for i := 0; i < 200; i++ {
		sess := newSession("fuzz", "555-0001")
		emergency := false
		for j := 0; j < 15; j++ {
			from := sess.Stage
			h.say(t, sess, pool[rng.Intn(len(pool))])
			if !statex.CanTransition(from, sess.Stage) {
				t.Fatalf("illegal transition %s -> %s", from, sess.Stage)
			}
			if emergency && !sess.IsEmergency {
				t.Fatalf("emergency flag dropped at %s", sess.Stage)
			}
			emergency = sess.IsEmergency
		}
	}
}

func TestUnclearAnswersEndAsFollowup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup []string
		stage statex.Stage
	}{
		{"ask schedule", []string{"", "Ada Ruiz", "7 Elm St", "leaky faucet"}, statex.StageAskSchedule},
		{"confirm slot", []string{"", "Ada Ruiz", "7 Elm St", "leaky faucet", "yes"}, statex.StageConfirmSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			sess := newSession("unclear", "555-2020")
			for _, u := range tt.setup {
				h.say(t, sess, u)
			}
			if sess.Stage != tt.stage {
				t.Fatalf("setup stage = %s, want %s", sess.Stage, tt.stage)
			}

			for i := 1; i < DefaultMaxNoInput; i++ {
				res := h.say(t, sess, "hmm what")
				if !res.Outcome.Reprompted || sess.Stage != tt.stage || sess.NoInputCount != i {
					t.Fatalf("turn %d stage=%s no_input=%d", i, sess.Stage, sess.NoInputCount)
				}
			}
			h.say(t, sess, "hmm what")
			if sess.Stage != statex.StagePendingFollowup || sess.Status != statex.StatusPendingFollowup {
				t.Fatalf("stage=%s status=%s", sess.Stage, sess.Status)
			}
		})
	}
}

func TestSilenceAndUnclearAnswersCountTogether(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("mixed", "555-2121")
	for _, u := range []string{"", "", "what?"} {
		h.say(t, sess, u)
	}
	if sess.NoInputCount != 2 || sess.Stage != statex.StageAskName {
		t.Fatalf("no_input=%d stage=%s", sess.NoInputCount, sess.Stage)
	}
	h.say(t, sess, "")
	if sess.Stage != statex.StagePendingFollowup {
		t.Fatalf("stage = %s, want PENDING_FOLLOWUP", sess.Stage)
	}
}

func TestNameContainingCancelIsAccepted(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("nancy", "555-2222")
	h.say(t, sess, "")
	h.say(t, sess, "Nancy Cancellieri")

	if sess.Stage != statex.StageAskAddress || sess.CallerName != "Nancy Cancellieri" {
		t.Fatalf("stage=%s name=%q", sess.Stage, sess.CallerName)
	}
}

func TestRoutineJobNoRushDeclines(t *testing.T) {
	t.Parallel()

	h := newHarness()
	sess := newSession("later", "555-2323")
	for _, u := range []string{"", "Lee Park", "9 Birch Ln", "leaky faucet"} {
		h.say(t, sess, u)
	}
	if sess.IsEmergency {
		t.Fatal("routine job flagged as emergency")
	}

	h.say(t, sess, "no rush, maybe later")
	if sess.Stage != statex.StagePendingFollowup || sess.HasEmergencyReason("caller_correction") {
		t.Fatalf("stage=%s reasons=%v", sess.Stage, sess.EmergencyReasons)
	}
}

func TestHandleInputNilSession(t *testing.T) {
	t.Parallel()

	if _, err := NewManager().HandleInput(context.Background(), nil, contractx.DefaultTenant("b"), "hi"); !errors.Is(err, ErrNilSession) {
		t.Fatalf("error = %v, want ErrNilSession", err)
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
