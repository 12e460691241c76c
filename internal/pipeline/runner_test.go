package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	discoveries map[string]Discovery
	errs        map[string]error
	calls       []string
}

func (f *fakeProber) Discover(_ context.Context, target string) (Discovery, error) {
	f.calls = append(f.calls, target)
	if err, ok := f.errs[target]; ok {
		return Discovery{}, err
	}
	return f.discoveries[target], nil
}

type fakeNotifier struct {
	sender  string
	msgID   string
	err     error
	sent    []string
	lastMsg Message
}

func (f *fakeNotifier) Send(_ context.Context, to string, msg Message) (string, error) {
	f.sent = append(f.sent, to)
	f.lastMsg = msg
	if f.err != nil {
		return "", f.err
	}
	return f.msgID, nil
}

func (f *fakeNotifier) Sender() string { return f.sender }

type fakeComposer struct {
	err  error
	seen []MessageData
}

func (f *fakeComposer) Compose(data MessageData) (Message, error) {
	f.seen = append(f.seen, data)
	if f.err != nil {
		return Message{}, f.err
	}
	return Message{Subject: "Hi " + data.Company, Body: "body"}, nil
}

type fakePacer struct {
	waits int
	err   error
}

func (f *fakePacer) Wait(context.Context) error {
	f.waits++
	return f.err
}

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRunner(p Prober, n Notifier, c Composer, pacer Pacer, send bool) *Runner {
	return NewRunner(p, n, c, pacer, fixedClock{at: testNow}, RunnerConfig{SendEnabled: send}, nil)
}

func TestRunOneResultPerTarget(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{
		discoveries: map[string]Discovery{
			"acme.io": {Address: "contact@acme.io", FinalURL: "https://acme.io/contact"},
			"beta.co": {Address: "info@beta.co", FinalURL: "https://beta.co"},
		},
	}
	notifier := &fakeNotifier{sender: "me@gmail.com", msgID: "m-1"}
	r := newTestRunner(prober, notifier, &fakeComposer{}, nil, true)

	results := r.Run(context.Background(), []string{"acme.io", "beta.co"})
	require.Len(t, results, 2)
	for _, res := range results {
		require.Equal(t, StatusSuccess, res.Status)
		require.Equal(t, "m-1", res.MessageID)
		require.Equal(t, "me@gmail.com", res.SenderEmail)
		require.Equal(t, testNow, res.Timestamp)
	}
	// Company is the input verbatim; URL is where the address was found.
	require.Equal(t, "acme.io", results[0].Company)
	require.Equal(t, "https://acme.io/contact", results[0].URL)
}

func TestRunFailureDoesNotStopBatch(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{
		discoveries: map[string]Discovery{
			"beta.co": {Address: "info@beta.co", FinalURL: "https://beta.co"},
		},
		errs: map[string]error{
			"acme.io": errors.New("tls handshake failed"),
		},
	}
	r := newTestRunner(prober, &fakeNotifier{msgID: "m-1"}, &fakeComposer{}, nil, true)

	results := r.Run(context.Background(), []string{"acme.io", "beta.co"})
	require.Len(t, results, 2)
	require.Equal(t, StatusFailed, results[0].Status)
	require.Equal(t, "tls handshake failed", results[0].Error)
	require.Equal(t, StatusSuccess, results[1].Status)
}

func TestRunNoAddressStatus(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{errs: map[string]error{"acme.io": ErrNoAddress}}
	r := newTestRunner(prober, &fakeNotifier{}, &fakeComposer{}, nil, true)

	results := r.Run(context.Background(), []string{"acme.io"})
	require.Equal(t, StatusNoEmail, results[0].Status)
	require.Empty(t, results[0].MessageID)
}

func TestRunSendDisabled(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{discoveries: map[string]Discovery{
		"acme.io": {Address: "contact@acme.io", FinalURL: "https://acme.io"},
	}}
	notifier := &fakeNotifier{sender: "me@gmail.com"}
	r := newTestRunner(prober, notifier, &fakeComposer{}, nil, false)

	results := r.Run(context.Background(), []string{"acme.io"})
	require.Equal(t, StatusFoundNotSent, results[0].Status)
	require.Equal(t, "contact@acme.io", results[0].Email)
	require.Empty(t, notifier.sent)
}

func TestRunNilNotifierRecordsFound(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{discoveries: map[string]Discovery{
		"acme.io": {Address: "contact@acme.io", FinalURL: "https://acme.io"},
	}}
	r := newTestRunner(prober, nil, nil, nil, false)

	results := r.Run(context.Background(), []string{"acme.io"})
	require.Equal(t, StatusFoundNotSent, results[0].Status)
	require.Empty(t, results[0].SenderEmail)
}

func TestRunSendFailure(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{discoveries: map[string]Discovery{
		"acme.io": {Address: "contact@acme.io", FinalURL: "https://acme.io"},
	}}
	notifier := &fakeNotifier{err: errors.New("quota exceeded")}
	r := newTestRunner(prober, notifier, &fakeComposer{}, nil, true)

	results := r.Run(context.Background(), []string{"acme.io"})
	require.Equal(t, StatusFailed, results[0].Status)
	require.Contains(t, results[0].Error, "quota exceeded")
	require.Equal(t, "contact@acme.io", results[0].Email)
}

func TestRunComposeFailure(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{discoveries: map[string]Discovery{
		"acme.io": {Address: "contact@acme.io", FinalURL: "https://acme.io"},
	}}
	notifier := &fakeNotifier{msgID: "m-1"}
	r := newTestRunner(prober, notifier, &fakeComposer{err: errors.New("bad template")}, nil, true)

	results := r.Run(context.Background(), []string{"acme.io"})
	require.Equal(t, StatusFailed, results[0].Status)
	require.Empty(t, notifier.sent)
}

func TestRunPacesBetweenTargetsOnly(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{errs: map[string]error{
		"a": ErrNoAddress, "b": ErrNoAddress, "c": ErrNoAddress,
	}}
	pacer := &fakePacer{}
	r := newTestRunner(prober, nil, nil, pacer, false)

	r.Run(context.Background(), []string{"a", "b", "c"})
	require.Equal(t, 2, pacer.waits)
}

func TestRunPacerErrorStopsBatch(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{errs: map[string]error{
		"a": ErrNoAddress, "b": ErrNoAddress,
	}}
	pacer := &fakePacer{err: context.Canceled}
	r := newTestRunner(prober, nil, nil, pacer, false)

	results := r.Run(context.Background(), []string{"a", "b"})
	require.Len(t, results, 1)
	require.Equal(t, []string{"a"}, prober.calls)
}

func TestRunComposerReceivesTargetData(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{discoveries: map[string]Discovery{
		"acme.io": {Address: "contact@acme.io", FinalURL: "https://acme.io/contact"},
	}}
	composer := &fakeComposer{}
	r := newTestRunner(prober, &fakeNotifier{msgID: "m-1"}, composer, nil, true)

	r.Run(context.Background(), []string{"acme.io"})
	require.Len(t, composer.seen, 1)
	require.Equal(t, MessageData{
		Company: "acme.io",
		URL:     "https://acme.io/contact",
		Email:   "contact@acme.io",
	}, composer.seen[0])
}
