package orchestratornode

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/conversation"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/repository"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

var now = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type ctxRecordingStore struct {
	statex.Store
	saveCtxErr error
}

func (s *ctxRecordingStore) Save(ctx context.Context, sess *statex.Session) error {
	s.saveCtxErr = ctx.Err()
	return s.Store.Save(ctx, sess)
}

type countingObserver struct{ n int }

func (c *countingObserver) Observe(context.Context, contractx.TurnOutcome) { c.n++ }

func TestValidateRequestTrimsAndRequiresBusiness(t *testing.T) {
	t.Parallel()

	if _, err := ValidateRequest(GraphInput{BusinessID: " "}, time.Now); !errors.Is(err, statex.ErrMissingBusiness) {
		t.Fatalf("ValidateRequest() error = %v", err)
	}

	st, err := ValidateRequest(GraphInput{BusinessID: " biz ", Utterance: "  hi ", TurnID: " t "}, func() time.Time { return now })
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.Input.BusinessID != "biz" || st.Input.Utterance != "hi" || st.Input.TurnID != "t" || !st.Now.Equal(now) {
		t.Fatalf("state = %+v", st)
	}
}

func TestSaveSessionIgnoresRequestCancellation(t *testing.T) {
	t.Parallel()

	store := &ctxRecordingStore{Store: statex.NewLocalStore()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := &GraphState{Session: statex.NewSession("s-1", "biz", "555", "", now)}
	if _, err := SaveSession(ctx, in, store); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if store.saveCtxErr != nil {
		t.Fatalf("save saw cancelled context: %v", store.saveCtxErr)
	}
	if _, err := store.Get(context.Background(), "s-1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

func TestSaveSessionRejectsInvalidSession(t *testing.T) {
	t.Parallel()

	sess := statex.NewSession("s-1", "biz", "555", "", now)
	sess.ProposedSlot = &statex.TimeSlot{Start: now, End: now.Add(time.Hour)}
	if _, err := SaveSession(context.Background(), &GraphState{Session: sess}, statex.NewLocalStore()); !errors.Is(err, statex.ErrSlotBeforeConfirm) {
		t.Fatalf("SaveSession() error = %v", err)
	}
}

func TestRunStateMachineReplaysKnownTurn(t *testing.T) {
	t.Parallel()

	manager := conversation.NewManager(conversation.WithClock(func() time.Time { return now }))
	sess := statex.NewSession("s-1", "biz", "555", "", now)
	sess.Stage = statex.StageAskAddress
	sess.LastTurnID = "turn-9"
	sess.LastReply = "What is the service address for this visit?"

	in := &GraphState{Input: GraphInput{TurnID: "turn-9", Utterance: "Jane Doe"}, Session: sess, Tenant: contractx.DefaultTenant("biz")}
	out, err := RunStateMachine(context.Background(), in, manager)
	if err != nil {
		t.Fatalf("RunStateMachine() error = %v", err)
	}
	if !out.Replayed || out.Reply != sess.LastReply || sess.Stage != statex.StageAskAddress || len(sess.Transcript) != 0 {
		t.Fatalf("replay mutated session: %+v", sess)
	}

	obs := &countingObserver{}
	if _, err := ObserveOutcome(context.Background(), out, obs); err != nil || obs.n != 0 {
		t.Fatalf("ObserveOutcome() n=%d err=%v", obs.n, err)
	}
}

func TestRunStateMachineRecordsTurnID(t *testing.T) {
	t.Parallel()

	manager := conversation.NewManager(conversation.WithClock(func() time.Time { return now }))
	sess := statex.NewSession("s-1", "biz", "555", "", now)

	in := &GraphState{Input: GraphInput{TurnID: "turn-1"}, Session: sess, Tenant: contractx.DefaultTenant("biz"), NewSession: true}
	out, err := RunStateMachine(context.Background(), in, manager)
	if err != nil {
		t.Fatalf("RunStateMachine() error = %v", err)
	}
	if sess.LastTurnID != "turn-1" || sess.LastReply != out.Reply || out.Replayed {
		t.Fatalf("session = %+v", sess)
	}
	if !out.Result.Outcome.NewSession {
		t.Fatal("outcome should carry NewSession")
	}
}

func TestResolveTenantFallsBackToDefault(t *testing.T) {
	t.Parallel()

	tenants := repository.NewStaticTenants(contractx.Tenant{ID: "known", Name: "Known Plumbing"})

	in := &GraphState{Session: statex.NewSession("s", "known", "", "", now)}
	if _, err := ResolveTenant(context.Background(), in, tenants); err != nil {
		t.Fatalf("ResolveTenant() error = %v", err)
	}
	if in.Tenant.Name != "Known Plumbing" {
		t.Fatalf("tenant = %+v", in.Tenant)
	}

	in = &GraphState{Session: statex.NewSession("s", "unknown", "", "", now)}
	if _, err := ResolveTenant(context.Background(), in, tenants); err != nil {
		t.Fatalf("ResolveTenant() error = %v", err)
	}
	if in.Tenant.ID != "unknown" || in.Tenant.Threshold() != contractx.DefaultIntentThreshold {
		t.Fatalf("default tenant = %+v", in.Tenant)
	}

	in = &GraphState{Session: statex.NewSession("s", "any", "", "", now)}
	if _, err := ResolveTenant(context.Background(), in, nil); err != nil || in.Tenant.ID != "any" {
		t.Fatalf("ResolveTenant(nil) tenant=%+v err=%v", in.Tenant, err)
	}
}

func TestFinalizeReplyRejectsEmptyReply(t *testing.T) {
	t.Parallel()

	in := &GraphState{Session: statex.NewSession("s", "biz", "", "", now), Reply: "  "}
	if _, err := FinalizeReply(in); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("FinalizeReply() error = %v", err)
	}

	in.Reply = "hello"
	out, err := FinalizeReply(in)
	if err != nil {
		t.Fatalf("FinalizeReply() error = %v", err)
	}
	if out.Session == in.Session || out.Session.ID != "s" {
		t.Fatal("output session must be a detached snapshot")
	}
}
