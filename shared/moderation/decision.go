package moderation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"hook-screener/internal/models"
)

const (
	defaultMaxSuggestions = 4
	substantialTextRunes  = 20

	fragmentWrongDuration = "wrong duration"
	fragmentNoFormat      = "duration fits neither format"
	fragmentHookMismatch  = "hook mismatch"
	fragmentNoCorpus      = "hook mismatch (no reference corpus)"
	fragmentStructure     = "structure mismatch"
)

// Engine turns an extracted sample into a verdict. With the default heuristic
// validator it is deterministic and does no I/O.
type Engine struct {
	profile        *Profile
	extractor      *KeyPhraseExtractor
	scorer         *SimilarityScorer
	detector       *LanguageDetector
	heuristic      *HeuristicValidator
	validator      HookValidator
	openers        []*regexp.Regexp
	maxSuggestions int
}

type Option func(*Engine)

// WithHookValidator replaces the heuristic validator, e.g. with a ChainValidator.
func WithHookValidator(v HookValidator) Option {
	return func(e *Engine) {
		if v != nil {
			e.validator = v
		}
	}
}

func WithMaxSuggestions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSuggestions = n
		}
	}
}

func NewEngine(profile *Profile, opts ...Option) (*Engine, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: nil profile", ErrUnknownProfile)
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}
	profile.Playbook.withDefaults()
	pb := profile.Playbook

	extractor, err := NewKeyPhraseExtractor(pb.KeyPhraseRules, pb.Primary.Key, pb.Secondary.Key)
	if err != nil {
		return nil, err
	}

	openers := make([]*regexp.Regexp, 0, len(pb.OriginalOpeners))
	for _, expr := range pb.OriginalOpeners {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid original-content pattern %q: %w", expr, err)
		}
		openers = append(openers, re)
	}

	scorer := NewSimilarityScorer(extractor)
	heuristic := NewHeuristicValidator(scorer, pb)
	e := &Engine{
		profile:        profile,
		extractor:      extractor,
		scorer:         scorer,
		detector:       NewLanguageDetector(pb.GermanIndicators, pb.GermanThreshold, scorer),
		heuristic:      heuristic,
		validator:      heuristic,
		openers:        openers,
		maxSuggestions: defaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Profile() *Profile { return e.profile }
func (e *Engine) Scorer() *SimilarityScorer { return e.scorer }
func (e *Engine) Heuristic() *HeuristicValidator { return e.heuristic }

// OriginalOpener returns the first original-content opener found in text.
func (e *Engine) OriginalOpener(text string) (string, bool) {
	normalized := Normalize(text)
	for _, re := range e.openers {
		if m := re.FindString(normalized); m != "" {
			return m, true
		}
	}
	return "", false
}

type stage int

const (
	stageReceived stage = iota
	stageFormatChecked
	stageHookChecked
	stageStructureChecked
	stageDecided
)

// decision carries a sample through the checks. Each check appends to the
// verdict and moves the stage forward.
type decision struct {
	engine *Engine
	stage  stage
	sample models.ExtractedSample
	text   string
	spec   FormatSpec

	verdict   models.Verdict
	fragments []string
	summary   []string
	positives struct{ structure, content, hook, duration []string }
	advice    struct{ duration, hook, structure []string }
}

func (d *decision) fail(dim models.Dimension, fragment, summary string) {
	d.verdict.Failures = append(d.verdict.Failures, dim)
	d.fragments = append(d.fragments, fragment)
	d.summary = append(d.summary, summary)
}

// Decide never fails on bad content; malformed input becomes a Rejected
// verdict. It errors only for an unknown category or a cancelled context.
func (e *Engine) Decide(ctx context.Context, sample models.ExtractedSample, cat models.Category, corpora CorpusLookup) (models.Verdict, error) {
	if cat != models.CategoryUnspecified && cat != models.CategoryShort && cat != models.CategoryLong {
		return models.Verdict{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	d := &decision{engine: e, stage: stageReceived, sample: sample, text: strings.TrimSpace(sample.Text)}
	d.verdict.Category = cat
	d.verdict.Language = models.LanguageEnglish

	if v, ok := d.checkInput(); !ok {
		return v, nil
	}
	if v, ok := d.checkOriginal(); !ok {
		return v, nil
	}

	d.checkFormat()
	if err := d.checkHook(ctx, corpora); err != nil {
		return models.Verdict{}, err
	}
	d.checkStructure()
	return d.decide(), nil
}

func (d *decision) checkInput() (models.Verdict, bool) {
	secs := d.sample.DurationSeconds
	var problems, advice []string
	if Normalize(d.text) == "" {
		problems = append(problems, "no on-screen text was extracted")
		advice = append(advice, "Add the hook as on-screen text in the first seconds of the video and submit it again")
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		problems = append(problems, "the video duration is missing")
		advice = append(advice, "Provide the video duration in seconds so the format can be checked")
	}
	if len(problems) == 0 {
		return models.Verdict{}, true
	}

	v := d.verdict
	v.Status = models.StatusRejected
	v.ReasonCode = models.ReasonInvalidInput
	v.Failures = []models.Dimension{models.DimensionInput}
	v.Checks = []models.Check{{Dimension: models.DimensionInput, Detail: strings.Join(problems, "; ")}}
	v.PositiveAspects = []string{}
	v.Suggestions = advice
	v.FormattedMessage = renderMessage(messageData{
		Greeting: greeting(d.sample.Ref),
		Summary:  "We couldn't check your latest video: " + strings.Join(problems, " and ") + ".",
		Link:     d.sample.Ref.Link(),
	})
	d.stage = stageDecided
	return v, false
}

func (d *decision) checkOriginal() (models.Verdict, bool) {
	opener, found := d.engine.OriginalOpener(d.text)
	if !found {
		return models.Verdict{}, true
	}

	v := d.verdict
	v.Status = models.StatusRejected
	v.ReasonCode = models.ReasonOriginalContent
	v.Failures = []models.Dimension{models.DimensionOriginal}
	v.Checks = []models.Check{{Dimension: models.DimensionOriginal, Detail: fmt.Sprintf("matched opener %q", opener)}}
	v.PositiveAspects = []string{}
	v.Suggestions = []string{"No hook feedback is generated for original videos; use a playbook hook to get format feedback"}
	v.FormattedMessage = renderMessage(messageData{
		Greeting: greeting(d.sample.Ref),
		Summary:  "This appears to be an original video. Feedback not supported yet.",
		Text:     d.text,
		Link:     d.sample.Ref.Link(),
	})
	d.stage = stageDecided
	return v, false
}

func (d *decision) checkFormat() {
	p := d.engine.profile
	secs := d.sample.DurationSeconds

	cat := d.verdict.Category
	if cat == models.CategoryUnspecified {
		cat = p.Classify(secs)
		d.verdict.Category = cat
	}
	d.spec, _ = p.Spec(cat)

	check := models.Check{Dimension: models.DimensionDuration, Passed: true}
	switch {
	case len(p.Fits(secs)) == 0:
		check.Passed = false
		check.Detail = fmt.Sprintf("Duration %.1fs doesn't fit short format (%ss) or long format (%ss)", secs, p.Short.Range(), p.Long.Range())
		d.fail(models.DimensionDuration, fragmentNoFormat,
			fmt.Sprintf("your video is %.1fs long, which fits neither the short (%ss) nor the long (%ss) format", secs, p.Short.Range(), p.Long.Range()))
		d.advice.duration = append(d.advice.duration, durationAdvice(cat, d.spec, secs))
	case !d.spec.Accepts(secs):
		check.Passed = false
		check.Detail = fmt.Sprintf("Duration %.1fs is outside the %s window (%ss)", secs, cat, d.spec.Range())
		d.fail(models.DimensionDuration, fragmentWrongDuration,
			fmt.Sprintf("your video is %.1fs long but the %s format needs %ss", secs, cat, d.spec.Range()))
		d.advice.duration = append(d.advice.duration, durationAdvice(cat, d.spec, secs))
	default:
		check.Detail = fmt.Sprintf("Duration %.1fs fits the %s window (%ss)", secs, cat, d.spec.Range())
		d.positives.duration = append(d.positives.duration, fmt.Sprintf("Duration is within optimal range (%s seconds)", d.spec.Range()))
	}
	d.verdict.Checks = append(d.verdict.Checks, check)
	d.stage = stageFormatChecked
}

func durationAdvice(cat models.Category, spec FormatSpec, secs float64) string {
	label := "short format"
	if cat == models.CategoryLong {
		label = "long text format"
	}
	if secs > spec.MaxSeconds+spec.ToleranceSeconds {
		return fmt.Sprintf("Consider shortening your video to %s seconds for %s", spec.Range(), label)
	}
	return fmt.Sprintf("Consider extending your video to at least %s seconds for %s", formatSeconds(spec.MinSeconds), label)
}

func (d *decision) checkHook(ctx context.Context, corpora CorpusLookup) error {
	e := d.engine
	cat := d.verdict.Category

	lang := e.detector.Detect(d.text, cat, corpora)
	corpus := Corpus{Source: models.CorpusSourceNone}
	if corpora != nil {
		corpus = corpora.Corpus(lang, cat)
	}
	d.verdict.Language = lang
	d.verdict.CorpusSource = corpus.Source

	res, err := e.validator.Validate(ctx, d.text, lang, cat, corpus)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, _ = e.heuristic.Validate(ctx, d.text, lang, cat, corpus)
		res.Note = fmt.Sprintf("hook validator failed (%v); heuristic result used", err)
	}
	if res.Note != "" {
		d.verdict.Notes = append(d.verdict.Notes, res.Note)
	}
	d.verdict.BestMatch = res.BestMatch

	check := models.Check{Dimension: models.DimensionHook, Passed: res.IsValid}
	switch {
	case res.IsValid:
		check.Detail = fmt.Sprintf("matched a validated %s %s hook (%s)", lang, cat, res.Validator)
		d.positives.hook = append(d.positives.hook, "Hook matches validated patterns")
	case res.CorpusMissing:
		check.Detail = fmt.Sprintf("no reference %s %s hooks available", lang, cat)
		d.fail(models.DimensionHook, fragmentNoCorpus, "we have no approved hooks to compare your text against yet")
	default:
		check.Detail = fmt.Sprintf("no validated %s %s hook is close enough (%s)", lang, cat, res.Validator)
		d.fail(models.DimensionHook, fragmentHookMismatch, "your hook doesn't match our validated patterns closely enough")
	}
	if !res.IsValid {
		d.advice.hook = append(d.advice.hook, res.Suggestions...)
	}
	d.verdict.Checks = append(d.verdict.Checks, check)

	d.contentPositives()
	d.stage = stageHookChecked
	return nil
}

func (d *decision) contentPositives() {
	pb := d.engine.profile.Playbook
	normalized := Normalize(d.text)

	if d.verdict.Category == models.CategoryLong && utf8.RuneCountInString(d.text) > substantialTextRunes {
		d.positives.content = append(d.positives.content, "Substantial text content extracted")
	}
	if strings.Contains(normalized, pb.Primary.Key) || strings.Contains(normalized, pb.Secondary.Key) {
		d.positives.content = append(d.positives.content,
			fmt.Sprintf("Mentions relevant platforms (%s/%s)", pb.Primary.Display, pb.Secondary.Display))
	}
	for _, kw := range pb.ConceptKeywords {
		if strings.Contains(normalized, kw) {
			d.positives.content = append(d.positives.content, "Contains relevant keywords for the concept")
			break
		}
	}
}

func (d *decision) checkStructure() {
	if !d.spec.RequiresStructuralCheck {
		d.stage = stageStructureChecked
		return
	}

	rules := d.engine.profile.Structure
	secs := d.sample.DurationSeconds
	faceRange := formatSeconds(rules.FaceWindowMinSeconds) + "-" + formatSeconds(rules.FaceWindowMaxSeconds)
	demoRange := formatSeconds(rules.DemoMinSeconds) + "-" + formatSeconds(rules.DemoMaxSeconds)

	var problems []string
	timingOK := rules.DemoFits(secs)
	if !timingOK {
		problems = append(problems, fmt.Sprintf("demo section of %.1fs is outside %ss", rules.DemoWindow(secs), demoRange))
		d.advice.structure = append(d.advice.structure,
			fmt.Sprintf("Keep the face intro to %ss and follow it with %ss of app footage", faceRange, demoRange))
	}

	var signals models.StructuralSignals
	if d.sample.Signals != nil {
		signals = *d.sample.Signals
	}

	faceOK := false
	switch {
	case signals.FaceWindowHit == nil:
		d.verdict.Notes = append(d.verdict.Notes, "Face check skipped: no detection result (unknown)")
	case *signals.FaceWindowHit:
		faceOK = true
		d.positives.structure = append(d.positives.structure, fmt.Sprintf("Face detected in first %s seconds", faceRange))
	default:
		problems = append(problems, "no face in the opening window")
		d.advice.structure = append(d.advice.structure, fmt.Sprintf("Open with your face on camera for the first %s seconds", faceRange))
	}

	appOK := false
	switch app := signals.AppFootage; {
	case app == nil:
		d.verdict.Notes = append(d.verdict.Notes, "App footage check skipped: no detection result (unknown)")
	case !app.Detected:
		problems = append(problems, "no app footage detected")
		d.advice.structure = append(d.advice.structure, "Include a clear app demonstration showing the mobile interface after the intro")
	case app.Confidence != nil && *app.Confidence < rules.MinAppFootageConfidence:
		problems = append(problems, fmt.Sprintf("app footage confidence %.2f below %.2f", *app.Confidence, rules.MinAppFootageConfidence))
		d.advice.structure = append(d.advice.structure, "Include a clear app demonstration showing the mobile interface after the intro")
	default:
		appOK = true
		d.positives.structure = append(d.positives.structure, "Video includes app footage section")
	}

	if timingOK && faceOK && appOK {
		d.positives.structure = append(d.positives.structure,
			fmt.Sprintf("Proper structure: Face clip (%ss) → App footage", faceRange))
	}

	check := models.Check{
		Dimension: models.DimensionStructure,
		Passed:    len(problems) == 0,
		Skipped:   timingOK && signals.FaceWindowHit == nil && signals.AppFootage == nil,
	}
	if len(problems) > 0 {
		check.Detail = strings.Join(problems, "; ")
		d.fail(models.DimensionStructure, fragmentStructure,
			fmt.Sprintf("the video should open with your face for %ss and then show the app", faceRange))
	}
	d.verdict.Checks = append(d.verdict.Checks, check)
	d.stage = stageStructureChecked
}

func (d *decision) decide() models.Verdict {
	v := d.verdict

	v.PositiveAspects = concat(d.positives.structure, d.positives.content, d.positives.hook, d.positives.duration)
	v.Suggestions = capUnique(concat(d.advice.duration, d.advice.hook, d.advice.structure), d.engine.maxSuggestions)

	data := messageData{
		Greeting:  greeting(d.sample.Ref),
		Positives: v.PositiveAspects,
		Notes:     v.Notes,
		Link:      d.sample.Ref.Link(),
	}

	if len(v.Failures) == 0 {
		v.Status = models.StatusApproved
		data.Summary = "Your latest video passed every check. Great job, keep this format going!"
	} else {
		v.Status = models.StatusRejected
		v.ReasonCode = strings.Join(d.fragments, " + ")
		if len(v.Suggestions) == 0 {
			v.Suggestions = []string{noSuggestionStatement(v.BestMatch)}
		}
		data.Summary = "Just some feedback on your latest video - " + strings.Join(d.summary, ", ") + "."
		data.Text = d.text
		data.Example = v.BestMatch
		data.Suggestions = v.Suggestions
	}

	v.FormattedMessage = renderMessage(data)
	d.stage = stageDecided
	return v
}

func noSuggestionStatement(bestMatch string) string {
	if bestMatch == "" {
		return "No specific suggestion could be generated for this video"
	}
	return `No specific suggestion could be generated; compare your text with the closest approved hook: "` + bestMatch + `"`
}

func concat(lists ...[]string) []string {
	out := []string{}
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
