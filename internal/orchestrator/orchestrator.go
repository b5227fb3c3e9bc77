// Package orchestrator routes one user message per turn through
// classification, gating, slot collection, and answer generation, persisting
// the intake state between turns so a conversation can be resumed on any
// instance that shares the session store.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/asrat/dietbuddy-intake/internal/biomarker"
	"github.com/asrat/dietbuddy-intake/internal/classifier"
	"github.com/asrat/dietbuddy-intake/internal/collector"
	"github.com/asrat/dietbuddy-intake/internal/fct"
	"github.com/asrat/dietbuddy-intake/internal/gatekeeper"
	"github.com/asrat/dietbuddy-intake/internal/llm"
	"github.com/asrat/dietbuddy-intake/internal/medval"
	"github.com/asrat/dietbuddy-intake/internal/memory"
	"github.com/asrat/dietbuddy-intake/internal/models"
	"github.com/asrat/dietbuddy-intake/internal/optimizer"
	"github.com/asrat/dietbuddy-intake/internal/prompts"
	"github.com/asrat/dietbuddy-intake/internal/retrieval"
	"github.com/asrat/dietbuddy-intake/internal/schema"
	"github.com/asrat/dietbuddy-intake/internal/targets"
)

// Conversation phases. A session is always in exactly one; every branch of a
// turn ends by leaving the session in a phase that tells the next turn where
// to pick up.
const (
	PhaseIdle                 = "IDLE"
	PhaseAwaitingSlot         = "AWAITING_SLOT"
	PhaseAwaitingConfirmation = "AWAITING_CONFIRMATION"
	PhaseOnboardChoice        = "ONBOARD_CHOICE"
	PhaseCollectorActive      = "COLLECTOR_ACTIVE"
	PhaseAnswered             = "ANSWERED"
)

// mealPlanSlot is a virtual slot name for the consent question; it never
// appears in any intake schema.
const mealPlanSlot = "meal_plan_days"

var resetPhrases = []string{"reset session", "start over", "new topic"}

var mealPlanPhrases = []string{
	"meal plan", "diet plan", "7-day plan", "7 day plan",
	"1-day plan", "1 day plan", "plan my meals",
}

// Orchestrator owns one turn at a time per session.
type Orchestrator struct {
	classify  *classifier.Adapter
	meds      medval.Validator
	retriever retrieval.Retriever
	answerer  *llm.Answerer
	sessions  *memory.Manager
	registry  *Registry
	gate      gatekeeper.Config
}

func New(cl *classifier.Adapter, meds medval.Validator, ret retrieval.Retriever, ans *llm.Answerer, sessions *memory.Manager, reg *Registry, gate gatekeeper.Config) *Orchestrator {
	if meds == nil {
		meds = medval.Disabled{}
	}
	return &Orchestrator{
		classify:  cl,
		meds:      meds,
		retriever: ret,
		answerer:  ans,
		sessions:  sessions,
		registry:  reg,
		gate:      gate,
	}
}

// HandleTurn processes one user message and returns the structured reply.
// Turns for the same session are serialized; turns for different sessions
// run concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, req *models.ChatRequest) *models.ChatResponse {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	release := o.registry.Acquire(sessionID)
	defer release()

	text := strings.TrimSpace(req.UserText)
	if text == "" {
		return errorResponse(sessionID, models.ErrorParseError, "empty message")
	}

	if isReset(text) {
		if err := o.sessions.ClearSession(ctx, sessionID); err != nil {
			log.Printf("⚠️ Failed to clear session %s: %v", sessionID, err)
		}
		return &models.ChatResponse{
			SessionID: sessionID,
			Template:  "followup",
			Answer:    "Okay, starting fresh. What nutrition question can I help you with?",
			Status:    models.StatusOK,
		}
	}

	session, err := o.sessions.LoadState(ctx, sessionID)
	if err != nil {
		log.Printf("❌ Failed to load session %s: %v", sessionID, err)
		return errorResponse(sessionID, models.ErrorInternal, "session store unavailable")
	}
	session.SessionID = sessionID

	if err := o.sessions.SaveUserMessage(ctx, sessionID, session.UserID, text); err != nil {
		log.Printf("⚠️ Failed to save user message for %s: %v", sessionID, err)
	}

	var resp *models.ChatResponse
	switch session.State.Phase {
	case PhaseAwaitingSlot:
		resp = o.handleAwaitedSlot(ctx, session, text)
	case PhaseAwaitingConfirmation:
		resp = o.handleConfirmation(ctx, session, text)
	case PhaseOnboardChoice:
		resp = o.handleOnboardChoice(ctx, session, text)
	case PhaseCollectorActive:
		resp = o.handleCollectorTurn(ctx, session, text)
	default:
		resp = o.handleIdle(ctx, session, text)
	}
	resp.SessionID = sessionID

	if err := o.sessions.SaveAssistantMessage(ctx, sessionID, session.UserID, resp.Answer); err != nil {
		log.Printf("⚠️ Failed to save assistant message for %s: %v", sessionID, err)
	}
	if err := o.sessions.SaveState(ctx, session); err != nil {
		log.Printf("❌ Failed to persist state for %s: %v", sessionID, err)
	}
	return resp
}

// handleIdle classifies a fresh message and runs the gate.
func (o *Orchestrator) handleIdle(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	rec := o.classify.Classify(ctx, text)
	session.State.LastQuery = text
	explicit := gatekeeper.ExplicitTherapyRequest(text)
	return o.evaluate(ctx, session, rec, text, explicit)
}

// resume re-runs the gate after slots changed, without re-classifying. The
// synthesized record carries high confidence so the resumed flow is judged
// on data completeness, not on phrasing.
func (o *Orchestrator) resume(ctx context.Context, session *memory.SessionData, carried []string) *models.ChatResponse {
	st := session.State
	label := st.IntentLock
	if label == "" {
		label = classifier.LabelGeneral
	}
	rec := &classifier.Record{
		Label:      label,
		Confidence: 0.95,
		Diagnosis:  st.Profile.Diagnosis,
		Biomarkers: map[string]biomarker.Reading{},
	}
	query := st.LastQuery
	if query == "" {
		query = "nutrition guidance"
	}
	resp := o.evaluate(ctx, session, rec, query, true)
	if len(carried) > 0 {
		resp.Warnings = append(carried, resp.Warnings...)
	}
	return resp
}

// evaluate is the shared post-classification path: merge extracted data,
// gate therapy intents, then either ask the first missing slot or answer.
func (o *Orchestrator) evaluate(ctx context.Context, session *memory.SessionData, rec *classifier.Record, query string, explicit bool) *models.ChatResponse {
	st := session.State
	p := st.Profile

	intent := st.IntentLock
	if intent == "" {
		intent = rec.Label
		st.IntentLock = intent
	}
	mergeRecord(p, intent, rec)

	var warnings []string
	var prefix string
	if rec.HighRisk {
		warnings = append(warnings, models.WarnHighRisk)
	}
	if o.gate.EscalateCritical && hasCriticalReading(p) && !rec.HighRisk {
		warnings = append(warnings, models.WarnHighRisk)
		prefix = "⚠️ Some recorded lab values are outside safe ranges. Please contact your clinician promptly.\n\n"
	}

	// Every record passes through the gate: the confidence floor applies to
	// all labels, the therapy rules only to therapy ones.
	d := gatekeeper.Decide(rec, p, query, explicit, o.gate)
	switch d.Outcome {
	case gatekeeper.Onboard:
		st.Phase = PhaseOnboardChoice
		warnings = append(warnings, models.WarnTherapyOnboarding)
		return &models.ChatResponse{
			Template:            "onboarding",
			Answer:              prompts.OnboardingMessage,
			Status:              models.StatusOnboarding,
			Warnings:            warnings,
			ComposerPlaceholder: "1, 2, or 3",
		}
	case gatekeeper.Downgrade:
		intent = downgradedIntent(d.Reason)
		st.IntentLock = intent
		warnings = append(warnings, models.WarnMissingData)
		prefix += prompts.DowngradeNotice(d.Reason) + "\n\n"
	}

	if spec := schema.FirstMissing(intent, p); spec != nil {
		return o.askSlot(st, intent, spec, warnings, prefix)
	}
	return o.answerTurn(ctx, session, intent, query, warnings, prefix)
}

func (o *Orchestrator) askSlot(st *memory.IntakeState, intent string, spec *schema.SlotSpec, warnings []string, prefix string) *models.ChatResponse {
	st.Phase = PhaseAwaitingSlot
	st.AwaitingSlot = spec.Name
	st.AwaitingQuestion = spec.Question
	st.RetryCount = 0
	st.GracefulDegradeAsked = false
	progress := schema.Progress(intent, st.Profile)
	return &models.ChatResponse{
		Template:            "followup",
		Answer:              prefix + spec.Question + progress,
		Status:              models.StatusFollowup,
		Warnings:            warnings,
		ComposerPlaceholder: spec.Hint,
		Progress:            strings.TrimSpace(progress),
	}
}

// handleAwaitedSlot parses the reply to the one outstanding question.
func (o *Orchestrator) handleAwaitedSlot(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	intent := st.IntentLock
	slot := st.AwaitingSlot

	if slot == mealPlanSlot {
		return o.handleMealPlanChoice(ctx, session, text)
	}
	if st.GracefulDegradeAsked {
		return o.handleDegradeChoice(ctx, session, text)
	}

	// The biomarker slot is free text ("HbA1c 7.8%, creatinine 2.1"); run it
	// through the extractor instead of the scalar slot parser.
	if slot == "biomarkers" {
		return o.handleBiomarkerAnswer(ctx, session, text)
	}

	spec := schema.Lookup(intent, slot)
	if spec == nil {
		st.Phase = PhaseIdle
		st.AwaitingSlot = ""
		return o.handleIdle(ctx, session, text)
	}

	res := collector.ParseSlot(text, spec)
	switch res.Status {
	case collector.StatusSuccess:
		if slot == "medications" {
			return o.acceptMedications(ctx, session, res.Value.([]string))
		}
		if err := st.Profile.Set(intent, slot, res.Value); err != nil {
			return o.retrySlot(st, err.Error(), models.WarnValueValidation)
		}
		return o.advance(ctx, session)

	case collector.StatusNeedDetails:
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              res.Message + "\n\n" + st.AwaitingQuestion,
			Status:              models.StatusFollowup,
			ComposerPlaceholder: spec.Hint,
		}

	case collector.StatusNotAvailable, collector.StatusSkipRequested:
		return o.skipSlot(ctx, session, slot)

	default: // StatusFailed
		return o.retrySlot(st, res.Message, models.WarnParsingFailed)
	}
}

func (o *Orchestrator) retrySlot(st *memory.IntakeState, message, warning string) *models.ChatResponse {
	st.RetryCount++
	if st.RetryCount >= collector.MaxRetries {
		return &models.ChatResponse{
			Template: "followup",
			Answer:   prompts.SkipOffer(st.AwaitingSlot),
			Status:   models.StatusFollowup,
			Warnings: []string{warning},
		}
	}
	answer := st.AwaitingQuestion
	if message != "" {
		answer = message + "\n\n" + answer
	}
	return &models.ChatResponse{
		Template: "followup",
		Answer:   answer,
		Status:   models.StatusFollowup,
		Warnings: []string{warning},
	}
}

// skipSlot resolves a refused or unavailable slot: critical slots offer
// graceful degradation, the rest fall back to documented defaults.
func (o *Orchestrator) skipSlot(ctx context.Context, session *memory.SessionData, slot string) *models.ChatResponse {
	st := session.State
	intent := st.IntentLock

	if collector.Critical(intent, slot) {
		st.GracefulDegradeAsked = true
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              prompts.GracefulDegradeOffer,
			Status:              models.StatusFollowup,
			ComposerPlaceholder: "general or later",
		}
	}
	if def, ok := collector.Default(slot); ok {
		if err := st.Profile.Set(intent, slot, def); err == nil {
			resp := o.advance(ctx, session)
			resp.Warnings = append([]string{models.WarnUsingDefaults}, resp.Warnings...)
			return resp
		}
	}
	// No default exists (e.g. allergies): record the explicit "none" so the
	// slot stops being asked.
	switch slot {
	case "allergies":
		_ = st.Profile.Set(intent, slot, []string{"none"})
	case "medications":
		_ = st.Profile.Set(intent, slot, []string{})
	}
	resp := o.advance(ctx, session)
	resp.Warnings = append([]string{models.WarnUsingDefaults}, resp.Warnings...)
	return resp
}

func (o *Orchestrator) handleDegradeChoice(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "general"):
		st.GracefulDegradeAsked = false
		st.AwaitingSlot = ""
		st.AwaitingQuestion = ""
		st.IntentLock = classifier.LabelRecommendation
		st.Phase = PhaseIdle
		return o.resume(ctx, session, []string{models.WarnMissingData})
	case strings.Contains(lower, "later"), strings.Contains(lower, "wait"):
		st.GracefulDegradeAsked = false
		st.AwaitingSlot = ""
		st.AwaitingQuestion = ""
		st.Phase = PhaseIdle
		return &models.ChatResponse{
			Template: "followup",
			Answer:   "No problem. Send the data whenever you have it and we'll pick up from there.",
			Status:   models.StatusOK,
		}
	default:
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              prompts.GracefulDegradeOffer,
			Status:              models.StatusFollowup,
			ComposerPlaceholder: "general or later",
		}
	}
}

func (o *Orchestrator) handleBiomarkerAnswer(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	if collector.Refusal(text) {
		return o.skipSlot(ctx, session, "biomarkers")
	}
	rec := o.classify.Classify(ctx, text)
	if len(rec.Biomarkers) == 0 {
		return o.retrySlot(st, "I couldn't find any lab values in that. Try e.g. 'HbA1c 7.8%, creatinine 2.1 mg/dL'.", models.WarnParsingFailed)
	}
	var warnings []string
	for name, r := range rec.Biomarkers {
		if err := st.Profile.SetBiomarker(name, r); err != nil {
			warnings = append(warnings, models.WarnValueValidation)
		}
	}
	if len(st.Profile.Biomarkers) == 0 {
		return o.retrySlot(st, "Those values look physiologically impossible. Please double-check and re-enter them.", models.WarnValueValidation)
	}
	resp := o.advance(ctx, session)
	resp.Warnings = append(warnings, resp.Warnings...)
	return resp
}

// acceptMedications runs the drug-name validator and, when it proposes a
// corrected spelling, asks before committing it.
func (o *Orchestrator) acceptMedications(ctx context.Context, session *memory.SessionData, meds []string) *models.ChatResponse {
	st := session.State
	corrected, suggestions := o.meds.ValidateList(ctx, meds)

	changed := false
	for _, s := range suggestions {
		if s.Suggested != "" {
			changed = true
			break
		}
	}
	if changed {
		st.PendingMedications = corrected
		st.Phase = PhaseAwaitingConfirmation
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              prompts.MedicationConfirmation(suggestions),
			Status:              models.StatusFollowup,
			Warnings:            []string{models.WarnMedicationValidation},
			ComposerPlaceholder: "yes or no",
		}
	}

	var warnings []string
	if len(suggestions) > 0 {
		// Lookups failed or were low-confidence: keep the user's spelling.
		warnings = append(warnings, models.WarnMedicationValidation)
	}
	if err := st.Profile.Set(st.IntentLock, "medications", corrected); err != nil {
		return o.retrySlot(st, err.Error(), models.WarnParsingFailed)
	}
	resp := o.advance(ctx, session)
	resp.Warnings = append(warnings, resp.Warnings...)
	return resp
}

func (o *Orchestrator) handleConfirmation(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	switch {
	case isYes(text):
		_ = st.Profile.Set(st.IntentLock, "medications", st.PendingMedications)
		st.PendingMedications = nil
		return o.advance(ctx, session)
	case isNo(text):
		st.PendingMedications = nil
		spec := schema.Lookup(st.IntentLock, "medications")
		st.Phase = PhaseAwaitingSlot
		st.AwaitingSlot = "medications"
		if spec != nil {
			st.AwaitingQuestion = spec.Question
		}
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              "Okay, I'll keep your original spellings. " + st.AwaitingQuestion,
			Status:              models.StatusFollowup,
			ComposerPlaceholder: "List medications separated by commas, or type 'none'",
		}
	default:
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              "Please reply 'yes' to use the corrected spellings or 'no' to keep yours.",
			Status:              models.StatusFollowup,
			ComposerPlaceholder: "yes or no",
		}
	}
}

// advance clears the outstanding question and re-runs the gate; the next
// missing slot is asked, or the answer is generated.
func (o *Orchestrator) advance(ctx context.Context, session *memory.SessionData) *models.ChatResponse {
	st := session.State
	st.AwaitingSlot = ""
	st.AwaitingQuestion = ""
	st.RetryCount = 0
	st.Phase = PhaseIdle
	return o.resume(ctx, session, nil)
}

func (o *Orchestrator) handleOnboardChoice(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lower == "1" || strings.Contains(lower, "upload"):
		st.Phase = PhaseIdle
		return &models.ChatResponse{
			Template: "followup",
			Answer:   "Document upload isn't wired into this channel yet. You can paste the relevant values directly into the chat, or reply '2' to go step by step.",
			Status:   models.StatusFollowup,
		}
	case lower == "2" || strings.Contains(lower, "step"):
		seed := seedFromProfile(st.Profile)
		st.Collector = collector.NewLinear(st.Profile.Diagnosis, seed)
		st.Phase = PhaseCollectorActive
		turn := st.Collector.Start()
		if turn.Done {
			return o.finishCollector(ctx, session, turn)
		}
		return collectorQuestion(turn, nil)
	case lower == "3" || strings.Contains(lower, "general"):
		st.IntentLock = classifier.LabelRecommendation
		st.Phase = PhaseIdle
		return o.resume(ctx, session, nil)
	default:
		return &models.ChatResponse{
			Template:            "onboarding",
			Answer:              prompts.OnboardingMessage,
			Status:              models.StatusOnboarding,
			ComposerPlaceholder: "1, 2, or 3",
		}
	}
}

func (o *Orchestrator) handleCollectorTurn(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	if st.Collector == nil {
		st.Phase = PhaseIdle
		return o.handleIdle(ctx, session, text)
	}
	turn := st.Collector.ProcessAnswer(text)
	if !turn.Done {
		var warnings []string
		if turn.Retry {
			warnings = append(warnings, models.WarnParsingFailed)
		}
		return collectorQuestion(turn, warnings)
	}
	return o.finishCollector(ctx, session, turn)
}

func (o *Orchestrator) finishCollector(ctx context.Context, session *memory.SessionData, turn collector.Turn) *models.ChatResponse {
	st := session.State
	diagnosis := st.Collector.Diagnosis
	warnings := o.mergeCollected(ctx, session, turn.Collected)
	if st.Profile.Diagnosis == "" && diagnosis != "" {
		_ = st.Profile.Set(classifier.LabelTherapy, "diagnosis", diagnosis)
	}
	st.Collector = nil
	st.Phase = PhaseIdle
	return o.resume(ctx, session, warnings)
}

func collectorQuestion(turn collector.Turn, warnings []string) *models.ChatResponse {
	answer := turn.Question
	if turn.Retry && turn.Message != "" {
		answer = "⚠️ " + turn.Message + "\n\n" + turn.Question
	}
	if turn.Progress != "" {
		answer += " " + turn.Progress
	}
	return &models.ChatResponse{
		Template:            "followup",
		Answer:              answer,
		Status:              models.StatusFollowup,
		Warnings:            warnings,
		ComposerPlaceholder: turn.Hint,
		Progress:            turn.Progress,
	}
}

// mergeCollected writes the collector's answers into the profile. Values may
// arrive as their native Go types or as JSON-decoded generics after a trip
// through the session store, so every read is type-tolerant.
func (o *Orchestrator) mergeCollected(ctx context.Context, session *memory.SessionData, data map[string]any) []string {
	st := session.State
	p := st.Profile
	intent := st.IntentLock
	if intent == "" {
		intent = classifier.LabelTherapy
	}

	var warnings []string
	if v, ok := data["diagnosis"]; ok {
		if s, ok := v.(string); ok {
			_ = p.Set(intent, "diagnosis", s)
		}
	}
	for _, slot := range []string{"age", "weight_kg", "height_cm"} {
		if v, ok := data[slot]; ok {
			if f, ok := asFloat(v); ok {
				if err := p.Set(intent, slot, f); err != nil {
					warnings = append(warnings, models.WarnValueValidation)
				}
			}
		}
	}
	if v, ok := data["country"]; ok {
		if s, ok := v.(string); ok {
			_ = p.Set(intent, "country", s)
		}
	}
	if v, ok := data["allergies"]; ok {
		_ = p.Set(intent, "allergies", asStringList(v))
	}
	if v, ok := data["medications"]; ok {
		meds := asStringList(v)
		corrected, suggestions := o.meds.ValidateList(ctx, meds)
		if len(suggestions) > 0 {
			warnings = append(warnings, models.WarnMedicationValidation)
		}
		_ = p.Set(intent, "medications", corrected)
	}
	for name, v := range data {
		switch name {
		case "diagnosis", "age", "weight_kg", "height_cm", "country", "allergies", "medications":
			continue
		}
		if r, ok := asReading(name, v); ok {
			if err := p.SetBiomarker(name, r); err != nil {
				warnings = append(warnings, models.WarnValueValidation)
			}
		}
	}
	return warnings
}

func (o *Orchestrator) handleMealPlanChoice(ctx context.Context, session *memory.SessionData, text string) *models.ChatResponse {
	st := session.State
	lower := strings.ToLower(text)
	// The decline check runs first and word-wise: "none" must not match the
	// "one" branch below.
	switch {
	case hasAnyWord(lower, "no", "none", "nope"):
		st.MealPlanConsent = false
		st.MealPlanDays = -1 // declined; do not re-ask this session
	case strings.Contains(lower, "7") || strings.Contains(lower, "seven") || strings.Contains(lower, "week"):
		st.MealPlanConsent = true
		st.MealPlanDays = 7
	case strings.Contains(lower, "1") || hasAnyWord(lower, "one") || strings.Contains(lower, "single"):
		st.MealPlanConsent = true
		st.MealPlanDays = 1
	default:
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              prompts.MealPlanConsent,
			Status:              models.StatusFollowup,
			ComposerPlaceholder: "1 day, 7 days, or no",
		}
	}
	return o.advance(ctx, session)
}

func (o *Orchestrator) answerTurn(ctx context.Context, session *memory.SessionData, intent, query string, warnings []string, prefix string) *models.ChatResponse {
	if intent == classifier.LabelTherapy {
		return o.therapyAnswer(ctx, session, query, warnings, prefix)
	}
	return o.generalAnswer(ctx, session, intent, query, warnings, prefix)
}

func (o *Orchestrator) therapyAnswer(ctx context.Context, session *memory.SessionData, query string, warnings []string, prefix string) *models.ChatResponse {
	st := session.State
	p := st.Profile

	if wantsMealPlan(query) && !st.MealPlanConsent && st.MealPlanDays == 0 {
		st.Phase = PhaseAwaitingSlot
		st.AwaitingSlot = mealPlanSlot
		st.AwaitingQuestion = prompts.MealPlanConsent
		return &models.ChatResponse{
			Template:            "followup",
			Answer:              prompts.MealPlanConsent,
			Status:              models.StatusFollowup,
			Warnings:            warnings,
			ComposerPlaceholder: "1 day, 7 days, or no",
		}
	}

	tg := targets.Compute(p)
	out := &models.TherapyOutput{
		Targets:     tg,
		Allergies:   p.ActiveAllergies(),
		TimingNotes: targets.MedicationTimingNotes(p.Medications),
		GrowthNote:  targets.GrowthNote(p),
	}

	if st.MealPlanConsent {
		foods, fctWarns := o.loadFoods(ctx, p.Country)
		warnings = append(warnings, fctWarns...)
		allergies := p.ActiveAllergies()
		plan := optimizer.Optimize(foods, tg, allergies)
		if strings.Contains(plan.Note, "fallback") {
			warnings = append(warnings, models.WarnOptimizerFallback)
		}
		out.Plan = plan
		mp := optimizer.SplitMeals(plan)
		out.Meals = mp.Meals
		out.Shopping = mp.Shopping
		out.TotalGrams = mp.TotalGrams
		if st.MealPlanDays == 7 {
			out.Week = optimizer.WeeklyPlan(mp)
		}
	}

	summary := prompts.TherapySummary(profileSummary(p), out, targets.Rationale(p.Diagnosis, tg))
	out.Summary = summary
	answer := prefix + summary

	if err := safetyCheck(answer, classifier.LabelTherapy, p, out, st.MealPlanConsent); err != nil {
		return o.safetyFailure(session, err, warnings)
	}
	st.Phase = PhaseAnswered
	return &models.ChatResponse{
		Template:      "therapy",
		Answer:        answer,
		Status:        models.StatusOK,
		Warnings:      warnings,
		TherapyOutput: out,
	}
}

func (o *Orchestrator) generalAnswer(ctx context.Context, session *memory.SessionData, intent, query string, warnings []string, prefix string) *models.ChatResponse {
	st := session.State
	history, err := o.sessions.GetFormattedHistory(ctx, session.SessionID)
	if err != nil {
		history = ""
	}
	prompt := prompts.AnswerPrompt(intent, query, history, profileSummary(st.Profile))
	text := o.answerer.Generate(ctx, prompt)
	if !strings.Contains(text, prompts.Disclaimer) {
		text = text + "\n\n" + prompts.Disclaimer
	}
	answer := prefix + text

	if err := safetyCheck(answer, intent, st.Profile, nil, st.MealPlanConsent); err != nil {
		return o.safetyFailure(session, err, warnings)
	}
	st.Phase = PhaseAnswered
	return &models.ChatResponse{
		Template: intent,
		Answer:   answer,
		Status:   models.StatusOK,
		Warnings: warnings,
	}
}

func (o *Orchestrator) safetyFailure(session *memory.SessionData, cause error, warnings []string) *models.ChatResponse {
	log.Printf("🛑 Safety gate rejected answer for session %s: %v", session.SessionID, cause)
	session.State.Phase = PhaseIdle
	return &models.ChatResponse{
		Template: "safety_failure",
		Answer:   prompts.SafetyFailureMessage,
		Status:   models.StatusSafetyFailure,
		Warnings: append(warnings, models.WarnSafetyFailure),
	}
}

// loadFoods fetches food-composition rows for the user's country and falls
// back to the built-in staples table when retrieval yields nothing usable.
func (o *Orchestrator) loadFoods(ctx context.Context, country string) ([]models.Food, []string) {
	if o.retriever != nil {
		rows, err := o.retriever.FoodRows(ctx, "staple foods for meal planning", country, 18)
		if err == nil {
			if foods := fct.Convert(rows); len(foods) > 0 {
				return foods, nil
			}
		} else {
			log.Printf("⚠️ Food table retrieval failed: %v", err)
		}
	}
	return fct.Staples(), []string{models.WarnFCTUnavailable}
}

// --- helpers ---

func mergeRecord(p *schema.Profile, intent string, rec *classifier.Record) {
	if rec.Diagnosis != "" && !p.Has("diagnosis") {
		_ = p.Set(intent, "diagnosis", rec.Diagnosis)
	}
	if len(rec.Medications) > 0 && !p.Has("medications") {
		_ = p.Set(intent, "medications", rec.Medications)
	}
	if rec.Country != "" && !p.Has("country") {
		_ = p.Set(intent, "country", rec.Country)
	}
	for name, r := range rec.Biomarkers {
		_ = p.SetBiomarker(name, r)
	}
}

func hasCriticalReading(p *schema.Profile) bool {
	for _, r := range p.Biomarkers {
		if r.Validation.Severity == biomarker.SeverityCritical {
			return true
		}
	}
	return false
}

func downgradedIntent(reason string) string {
	if reason == gatekeeper.ReasonLowConfidenceGeneral {
		return classifier.LabelGeneral
	}
	return classifier.LabelRecommendation
}

func profileSummary(p *schema.Profile) string {
	var parts []string
	if p.Diagnosis != "" {
		parts = append(parts, "diagnosis: "+p.Diagnosis)
	}
	if p.Age != nil {
		parts = append(parts, fmt.Sprintf("age: %.0f", *p.Age))
	}
	if p.WeightKg != nil {
		parts = append(parts, fmt.Sprintf("weight: %.1f kg", *p.WeightKg))
	}
	if len(p.Medications) > 0 {
		parts = append(parts, "medications: "+strings.Join(p.Medications, ", "))
	}
	if a := p.ActiveAllergies(); len(a) > 0 {
		parts = append(parts, "allergies: "+strings.Join(a, ", "))
	}
	if p.Country != "" {
		parts = append(parts, "country: "+p.Country)
	}
	if p.FoodA != "" && p.FoodB != "" {
		parts = append(parts, "comparing: "+p.FoodA+" vs "+p.FoodB)
	}
	if len(parts) == 0 {
		return "(nothing recorded yet)"
	}
	return strings.Join(parts, "; ")
}

func seedFromProfile(p *schema.Profile) map[string]any {
	seed := make(map[string]any)
	if p.Age != nil {
		seed["age"] = *p.Age
	}
	if p.WeightKg != nil {
		seed["weight_kg"] = *p.WeightKg
	}
	if p.HeightCm != nil {
		seed["height_cm"] = *p.HeightCm
	}
	if p.Medications != nil {
		seed["medications"] = p.Medications
	}
	if p.Allergies != nil {
		seed["allergies"] = p.Allergies
	}
	if p.Country != "" {
		seed["country"] = p.Country
	}
	for name, r := range p.Biomarkers {
		seed[name] = r
	}
	return seed
}

func wantsMealPlan(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range mealPlanPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func isReset(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range resetPhrases {
		if lower == p || strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yeah", "yep", "sure", "ok", "okay", "correct":
		return true
	}
	return false
}

func isNo(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "no", "n", "nope", "keep mine", "keep original":
		return true
	}
	return false
}

// hasAnyWord matches whole words only, so "none" never hits a "one" check.
func hasAnyWord(lower string, words ...string) bool {
	for _, f := range strings.Fields(lower) {
		f = strings.Trim(f, ".,!?")
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func asStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// asReading accepts a native Reading or its JSON-decoded generic form.
func asReading(name string, v any) (biomarker.Reading, bool) {
	switch r := v.(type) {
	case biomarker.Reading:
		return r, true
	case map[string]any:
		value, okV := asFloat(r["value"])
		unit, _ := r["unit"].(string)
		if !okV {
			return biomarker.Reading{}, false
		}
		return biomarker.NewReading(name, value, unit), true
	}
	return biomarker.Reading{}, false
}

func errorResponse(sessionID, code, message string) *models.ChatResponse {
	return &models.ChatResponse{
		SessionID:    sessionID,
		Template:     "error",
		Answer:       prompts.FallbackMessage,
		Status:       models.StatusError,
		ErrorCode:    &code,
		ErrorMessage: &message,
	}
}
