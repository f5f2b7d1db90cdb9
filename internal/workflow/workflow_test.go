package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"correctme/internal/llm"
)

type fakeTransport struct {
	mu        sync.Mutex
	complete  func(req llm.CompletionRequest) (string, error)
	stream    func(req llm.CompletionRequest) (io.ReadCloser, error)
	completes []llm.CompletionRequest
	streams   []llm.CompletionRequest
}

func (f *fakeTransport) Complete(_ context.Context, req llm.CompletionRequest, credential string) (string, error) {
	f.mu.Lock()
	f.completes = append(f.completes, req)
	fn := f.complete
	f.mu.Unlock()
	if fn == nil {
		return "", errors.New("unexpected Complete call")
	}
	return fn(req)
}

func (f *fakeTransport) Stream(_ context.Context, req llm.CompletionRequest, credential string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.streams = append(f.streams, req)
	fn := f.stream
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected Stream call")
	}
	return fn(req)
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completes) + len(f.streams)
}

type status struct {
	Message string
	IsError bool
}

type recordingView struct {
	mu           sync.Mutex
	statuses     []status
	fragments    []string
	output       string
	diff         string
	openSettings int
}

func (v *recordingView) SetStatus(message string, isError bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, status{message, isError})
}

func (v *recordingView) ResetOutput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.output = ""
}

func (v *recordingView) AppendOutput(fragment string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fragments = append(v.fragments, fragment)
	v.output += fragment
}

func (v *recordingView) SetOutput(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.output = text
}

func (v *recordingView) SetDiff(markup string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.diff = markup
}

func (v *recordingView) OpenSettings() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.openSettings++
}

func (v *recordingView) lastStatus() status {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return status{}
	}
	return v.statuses[len(v.statuses)-1]
}

type recordingDiffer struct {
	calls [][2]string
	err   error
}

func (d *recordingDiffer) Render(original, revised string) (string, error) {
	d.calls = append(d.calls, [2]string{original, revised})
	if d.err != nil {
		return "", d.err
	}
	return "diff(" + original + "|" + revised + ")", nil
}

func (d *recordingDiffer) RenderError(message string) string {
	return `<p class="diff-error">` + message + `</p>`
}

func sseBody(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(`data: {"choices":[{"delta":{"content":"` + f + `"}}]}` + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func readySession() *Session {
	return NewSession(Settings{Credential: "sk-test", Model: "test/model", UILanguage: "en"})
}

func TestCorrect_HappyPath(t *testing.T) {
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return `Sure: {"englishName":"English","uiName":"English"}`, nil
		},
		stream: func(llm.CompletionRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(sseBody("This ", "is a ", "test"))), nil
		},
	}
	differ := &recordingDiffer{}
	o := New(readySession(), tr, WithDiffer(differ))
	view := &recordingView{}

	res, err := o.Correct(context.Background(), view, "  These is a test \n")
	if err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	if res.Corrected != "This is a test" || res.Language.EnglishName != "English" {
		t.Fatalf("unexpected result: %#v", res)
	}
	if diff := cmp.Diff([][2]string{{"These is a test", "This is a test"}}, differ.calls); diff != "" {
		t.Fatalf("diff collaborator calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"This ", "is a ", "test"}, view.fragments); diff != "" {
		t.Fatalf("streamed fragments mismatch (-want +got):\n%s", diff)
	}
	if view.diff != "diff(These is a test|This is a test)" {
		t.Fatalf("diff not rendered: %q", view.diff)
	}
	wantStatuses := []status{
		{"Processing...", false},
		{"Detecting language...", false},
		{"Detected language: English", false},
		{"Correcting text in English...", false},
		{"Correction complete.", false},
	}
	if diff := cmp.Diff(wantStatuses, view.statuses); diff != "" {
		t.Fatalf("status sequence mismatch (-want +got):\n%s", diff)
	}
	if len(tr.streams) != 1 || !strings.Contains(tr.streams[0].Messages[0].Content, "You are an English teacher") {
		t.Fatalf("correction prompt not parameterized: %#v", tr.streams)
	}
	if tr.streams[0].Messages[1].Content != "Correct this: **begin**These is a test**end**" {
		t.Fatalf("user prompt mismatch: %q", tr.streams[0].Messages[1].Content)
	}
	if o.Session().Busy() {
		t.Fatalf("gate still held after success")
	}
}

func TestCorrect_ValidationOrder(t *testing.T) {
	cases := []struct {
		name         string
		settings     Settings
		input        string
		want         error
		openSettings int
	}{
		{"missing credential", Settings{Model: "m"}, "", ErrMissingCredential, 1},
		{"missing model", Settings{Credential: "k"}, "", ErrModelNotSelected, 1},
		{"empty input", Settings{Credential: "k", Model: "m"}, "   \n\t", ErrEmptyInput, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransport{}
			o := New(NewSession(tc.settings), tr)
			view := &recordingView{}
			res, err := o.Correct(context.Background(), view, tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if res != nil {
				t.Fatalf("unexpected result: %#v", res)
			}
			if view.openSettings != tc.openSettings {
				t.Fatalf("OpenSettings called %d times, want %d", view.openSettings, tc.openSettings)
			}
			if st := view.lastStatus(); !st.IsError || st.Message != err.Error() {
				t.Fatalf("rejection not reported as error status: %#v", st)
			}
			if tr.calls() != 0 {
				t.Fatalf("transport called during validation")
			}
			if o.Session().Busy() {
				t.Fatalf("gate still held after rejection")
			}
		})
	}
}

func TestCorrect_UnknownLanguageIsNotWrapped(t *testing.T) {
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return `{"englishName":"Unknown","uiName":"Desconhecido"}`, nil
		},
	}
	o := New(readySession(), tr)
	view := &recordingView{}

	_, err := o.Correct(context.Background(), view, "zxqv")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
	if errors.Is(err, ErrDetectionFailed) {
		t.Fatalf("unknown language must not be wrapped as detection failure")
	}
	const msg = "Could not recognize the language of the text."
	if err.Error() != msg {
		t.Fatalf("message mismatch: %q", err.Error())
	}
	if st := view.lastStatus(); st != (status{msg, true}) {
		t.Fatalf("status mismatch: %#v", st)
	}
	if view.output != msg {
		t.Fatalf("error not mirrored into output: %q", view.output)
	}
	if len(tr.streams) != 0 {
		t.Fatalf("correction must not start after unknown language")
	}
}

func TestCorrect_DetectionTransportFailureIsWrappedOnce(t *testing.T) {
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return "", &llm.NetworkError{Detail: "connection refused"}
		},
	}
	_, err := New(readySession(), tr).Correct(context.Background(), &recordingView{}, "Bonjour")
	if !errors.Is(err, ErrDetectionFailed) {
		t.Fatalf("expected ErrDetectionFailed, got %v", err)
	}
	var netErr *llm.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("cause lost: %v", err)
	}
	if got := err.Error(); got != "Language detection failed: Network error: connection refused" {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestCorrect_StreamFault(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"This "}}]}` + "\n" +
		`data: {"choices":[{"delta":{"content":"is"}}]}` + "\n" +
		`data: {"choices":[{"finish_reason":"error"}]}` + "\n"
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return `{"englishName":"English","uiName":"English"}`, nil
		},
		stream: func(llm.CompletionRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
	differ := &recordingDiffer{}
	view := &recordingView{}
	res, err := New(readySession(), tr, WithDiffer(differ)).Correct(context.Background(), view, "These is")
	if res != nil {
		t.Fatalf("partial content returned as success: %#v", res)
	}
	if !errors.Is(err, ErrCorrectionFailed) {
		t.Fatalf("expected ErrCorrectionFailed, got %v", err)
	}
	if got := err.Error(); got != "Correction failed: Error processing correction. Please try again." {
		t.Fatalf("message mismatch: %q", got)
	}
	if diff := cmp.Diff([]string{"This ", "is"}, view.fragments); diff != "" {
		t.Fatalf("fragments before the fault were not shown (-want +got):\n%s", diff)
	}
	if len(differ.calls) != 0 {
		t.Fatalf("diff must not run after a failed correction")
	}
}

func TestCorrect_APIErrorOnStream(t *testing.T) {
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return `{"englishName":"English","uiName":"English"}`, nil
		},
		stream: func(llm.CompletionRequest) (io.ReadCloser, error) {
			return nil, &llm.APIError{Status: 429, StatusText: "Too Many Requests", Detail: "Rate limit exceeded"}
		},
	}
	_, err := New(readySession(), tr).Correct(context.Background(), &recordingView{}, "hello")
	if got := err.Error(); got != "Correction failed: API Error: 429 Too Many Requests. Rate limit exceeded" {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestCorrect_DiffFailureRendersInline(t *testing.T) {
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return `{"englishName":"English","uiName":"English"}`, nil
		},
		stream: func(llm.CompletionRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(sseBody("fixed"))), nil
		},
	}
	view := &recordingView{}
	res, err := New(readySession(), tr, WithDiffer(&recordingDiffer{err: errors.New("boom")})).
		Correct(context.Background(), view, "fixd")
	if err != nil {
		t.Fatalf("diff failure must not fail the workflow: %v", err)
	}
	if res.DiffErr == nil {
		t.Fatalf("diff error not recorded")
	}
	if view.diff != `<p class="diff-error">Error generating diff: boom</p>` {
		t.Fatalf("inline fragment mismatch: %q", view.diff)
	}
	if st := view.lastStatus(); st != (status{"Correction complete.", false}) {
		t.Fatalf("final status mismatch: %#v", st)
	}
}

func TestCorrect_SecondCallWhileBusyIsNoop(t *testing.T) {
	started := make(chan struct{})
	pr, pw := io.Pipe()
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) {
			return `{"englishName":"English","uiName":"English"}`, nil
		},
		stream: func(llm.CompletionRequest) (io.ReadCloser, error) {
			close(started)
			return pr, nil
		},
	}
	o := New(readySession(), tr, WithDiffer(&recordingDiffer{}))

	type outcome struct {
		res *Correction
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := o.Correct(context.Background(), &recordingView{}, "first")
		done <- outcome{res, err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("first workflow never reached the stream")
	}
	if !o.Session().Busy() {
		t.Fatalf("gate not held while streaming")
	}

	callsBefore := tr.calls()
	view := &recordingView{}
	res, err := o.Correct(context.Background(), view, "second")
	if res != nil || err != nil {
		t.Fatalf("busy call must be a no-op, got %#v %v", res, err)
	}
	tr2, err2 := o.Translate(context.Background(), view, "second", DefaultTarget())
	if tr2 != nil || err2 != nil {
		t.Fatalf("busy translate must be a no-op, got %#v %v", tr2, err2)
	}
	if tr.calls() != callsBefore {
		t.Fatalf("busy call reached the transport")
	}
	if len(view.statuses) != 0 || view.openSettings != 0 {
		t.Fatalf("busy call touched the view: %#v", view)
	}

	_, _ = io.WriteString(pw, sseBody("first"))
	_ = pw.Close()
	select {
	case out := <-done:
		if out.err != nil || out.res == nil || out.res.Corrected != "first" {
			t.Fatalf("first workflow outcome: %#v %v", out.res, out.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("first workflow did not finish")
	}
	if o.Session().Busy() {
		t.Fatalf("gate still held")
	}
}

func TestCorrect_PortugueseUI(t *testing.T) {
	tr := &fakeTransport{
		complete: func(req llm.CompletionRequest) (string, error) {
			return `{"englishName":"French","uiName":"Francês"}`, nil
		},
		stream: func(llm.CompletionRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(sseBody("Bonjour"))), nil
		},
	}
	s := readySession()
	s.Update(func(st *Settings) { st.UILanguage = "pt-BR" })
	view := &recordingView{}
	if _, err := New(s, tr, WithDiffer(&recordingDiffer{})).Correct(context.Background(), view, "Bonjur"); err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	if !strings.Contains(tr.completes[0].Messages[0].Content, "translated into Português (Brasil)") {
		t.Fatalf("detection prompt not localized: %q", tr.completes[0].Messages[0].Content)
	}
	if !strings.Contains(tr.streams[0].Messages[0].Content, "detailed explanations in Português (Brasil)") {
		t.Fatalf("correction prompt not localized")
	}
	if !strings.Contains(tr.streams[0].Messages[0].Content, "You are an French teacher") {
		t.Fatalf("correction prompt does not use the english name")
	}
	if view.statuses[3].Message != "Corrigindo texto em Francês..." {
		t.Fatalf("status not localized: %#v", view.statuses)
	}
}

func TestTranslate_HappyPath(t *testing.T) {
	tr := &fakeTransport{
		complete: func(llm.CompletionRequest) (string, error) { return "Bonjour le monde", nil },
	}
	view := &recordingView{}
	target, ok := FindTarget("french", nil)
	if !ok {
		t.Fatal("french target not found")
	}
	res, err := New(readySession(), tr).Translate(context.Background(), view, " Hello world ", target)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.Translated != "Bonjour le monde" || view.output != "Bonjour le monde" {
		t.Fatalf("unexpected output: %#v %q", res, view.output)
	}
	req := tr.completes[0]
	if req.Stream {
		t.Fatalf("translation must not stream")
	}
	if !strings.Contains(req.Messages[0].Content, "**begin** and **end** to French.") {
		t.Fatalf("system prompt does not name the target: %q", req.Messages[0].Content)
	}
	if req.Messages[1].Content != "Translate this: **begin**Hello world**end**" {
		t.Fatalf("user prompt mismatch: %q", req.Messages[1].Content)
	}
	wantStatuses := []status{{"Translating to French...", false}, {"Translation complete.", false}}
	if diff := cmp.Diff(wantStatuses, view.statuses); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslate_EmptyReply(t *testing.T) {
	tr := &fakeTransport{complete: func(llm.CompletionRequest) (string, error) { return "", nil }}
	view := &recordingView{}
	_, err := New(readySession(), tr).Translate(context.Background(), view, "hi", DefaultTarget())
	if !errors.Is(err, ErrEmptyTranslation) {
		t.Fatalf("expected ErrEmptyTranslation, got %v", err)
	}
	if got := err.Error(); got != "Translation failed: Received empty response" {
		t.Fatalf("message mismatch: %q", got)
	}
	if view.output != err.Error() {
		t.Fatalf("error not mirrored into output: %q", view.output)
	}
}

func TestTranslate_TargetCheckedAfterInput(t *testing.T) {
	o := New(readySession(), &fakeTransport{})
	if _, err := o.Translate(context.Background(), &recordingView{}, "", TranslationTarget{}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput first, got %v", err)
	}
	if _, err := o.Translate(context.Background(), &recordingView{}, "hi", TranslationTarget{}); !errors.Is(err, ErrTargetLanguageNotSelected) {
		t.Fatalf("expected ErrTargetLanguageNotSelected, got %v", err)
	}
	if o.Session().Busy() {
		t.Fatalf("gate still held")
	}
}

func TestTranslate_APIErrorWrappedOnce(t *testing.T) {
	tr := &fakeTransport{complete: func(llm.CompletionRequest) (string, error) {
		return "", &llm.APIError{Status: 401, StatusText: "Unauthorized"}
	}}
	_, err := New(readySession(), tr).Translate(context.Background(), &recordingView{}, "hi", DefaultTarget())
	if !errors.Is(err, ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}
	if got := err.Error(); got != "Translation failed: API Error: 401 Unauthorized." {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestDetect_Standalone(t *testing.T) {
	tr := &fakeTransport{complete: func(llm.CompletionRequest) (string, error) {
		return `{"englishName":"French","uiName":"Francês"}`, nil
	}}
	info, err := New(readySession(), tr).Detect(context.Background(), NopView{}, "Bonjour")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if *info != (LanguageInfo{EnglishName: "French", UIName: "Francês"}) {
		t.Fatalf("unexpected info: %#v", info)
	}
}
