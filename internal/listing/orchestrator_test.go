package listing

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/raine/myyntiapuri/internal/llm"
	"github.com/raine/myyntiapuri/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	listingReply  = "BRAND: Marimekko, SIZE: M --- Marimekko mekko M --- Kaunis mekko.\nKäytetty vähän."
	insightsReply = "25-35 €\n---\nVyö vyötärölle\nValkoiset tennarit\nFarkkutakki\nHattu\n---\nKuvaa luonnonvalossa"
)

func testAssets(t *testing.T) []ImageAsset {
	t.Helper()
	d := NewDraft(IntakeOptions{}, nil)
	_, err := d.AddImages(context.Background(), []ImageFile{
		NewBytesFile("front.png", pngData),
		NewBytesFile("back.jpg", jpegData),
	})
	require.NoError(t, err)
	return d.Assets()
}

func fixedNow() time.Time {
	return time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)
}

func newTestOrchestrator(gen llm.Generator, history HistoryRecorder) *Orchestrator {
	o := NewOrchestrator(gen, history)
	o.now = fixedNow
	return o
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Record(e storage.HistoryEntry) {
	m.Called(e)
}

func TestGenerate_Success(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	want := storage.HistoryEntry{ID: fixedNow().UnixMilli(), Title: "Marimekko mekko M", Date: "2.1.2026"}
	history := &mockHistory{}
	history.On("Record", want).Once()
	o := newTestOrchestrator(gen, history)

	res, err := o.Generate(context.Background(), Request{
		Assets:         testAssets(t),
		Condition:      ConditionVeryGood,
		Details:        "pieni tahra helmassa",
		ClosingMessage: "Kiitos!",
	})
	require.NoError(t, err)

	assert.Equal(t, "BRAND: Marimekko, SIZE: M", res.Listing.Info)
	assert.Equal(t, "Marimekko mekko M", res.Listing.Title)
	assert.Equal(t, "Kaunis mekko.\nKäytetty vähän.", res.Listing.Body)
	assert.Equal(t, "Kaunis mekko.\nKäytetty vähän.\n\nKiitos!", res.Listing.Description)

	assert.Equal(t, "25-35 €", res.Insights.Price)
	assert.Equal(t, "Kuvaa luonnonvalossa", res.Insights.Selling)
	assert.Equal(t, []string{"Vyö vyötärölle", "Valkoiset tennarit", "Farkkutakki"}, res.Insights.StylingTipLines())

	assert.Equal(t, want, res.Entry)
	history.AssertExpectations(t)
	assert.Same(t, res, o.Last())
	assert.Equal(t, "", o.Status())
	assert.False(t, o.Busy())
}

func TestGenerate_RequestShape(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	o := newTestOrchestrator(gen, nil)
	assets := testAssets(t)

	_, err := o.Generate(context.Background(), Request{
		Assets:    assets,
		Condition: ConditionGood,
		Details:   "koko 38",
	})
	require.NoError(t, err)
	require.Equal(t, 2, gen.calls())

	first := gen.request(0)
	require.Len(t, first.Contents, 1)
	parts := first.Contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "Luo ilmoitus: Hyvä. koko 38", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, assets[0].Data, parts[1].InlineData.Data)
	require.NotNil(t, parts[2].InlineData)
	assert.Equal(t, "image/jpeg", parts[2].InlineData.MIMEType)
	require.NotNil(t, first.SystemInstruction)
	assert.Contains(t, first.SystemInstruction.Parts[0].Text, "TITLE --- DESCRIPTION")
	assert.False(t, first.UseSearch)

	second := gen.request(1)
	require.Len(t, second.Contents, 1)
	require.Len(t, second.Contents[0].Parts, 1)
	assert.Equal(t,
		"Tuote: Marimekko mekko M. Hinta-arvio, 3 lyhyttä stailausvinkkiä, 1 myyntivinkki. Erota ---.",
		second.Contents[0].Parts[0].Text)
	assert.True(t, second.UseSearch)
	assert.Nil(t, second.SystemInstruction)
}

func TestGenerate_English(t *testing.T) {
	gen := newFakeGenerator(reply{text: "info"}, reply{text: "10 €"})
	o := newTestOrchestrator(gen, nil)

	res, err := o.Generate(context.Background(), Request{
		Assets:    testAssets(t),
		Condition: ConditionNewWithTags,
		Language:  LanguageEnglish,
	})
	require.NoError(t, err)

	assert.Equal(t, "Create a listing: New with tags.", gen.request(0).Contents[0].Parts[0].Text)
	assert.Equal(t, "Listing", res.Listing.Title)
	assert.Equal(t, "1/2/2026", res.Entry.Date)
	assert.Contains(t, gen.request(1).Contents[0].Parts[0].Text, "Product: Listing.")
}

func TestGenerate_SingleSegmentUsesPlaceholder(t *testing.T) {
	gen := newFakeGenerator(reply{text: "no delimiters at all"}, reply{text: "15 €"})
	o := newTestOrchestrator(gen, nil)

	res, err := o.Generate(context.Background(), Request{
		Assets:         testAssets(t),
		Condition:      ConditionGood,
		ClosingMessage: DefaultClosingMessage,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ilmoitus", res.Listing.Title)
	assert.Equal(t, "", res.Listing.Body)
	assert.Equal(t, "\n\n"+DefaultClosingMessage, res.Listing.Description)
	assert.Equal(t, "15 €", res.Insights.Price)
	assert.Equal(t, "", res.Insights.Styling)
	assert.Equal(t, "", res.Insights.Selling)
	assert.Equal(t, "Ilmoitus", res.Entry.Title)
}

func TestGenerate_EmptyClosingMessage(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	o := newTestOrchestrator(gen, nil)

	res, err := o.Generate(context.Background(), Request{Assets: testAssets(t), Condition: ConditionGood})
	require.NoError(t, err)
	assert.Equal(t, res.Listing.Body, res.Listing.Description)
}

func TestGenerate_Validation(t *testing.T) {
	gen := newFakeGenerator()
	o := newTestOrchestrator(gen, nil)

	_, err := o.Generate(context.Background(), Request{Condition: ConditionGood})
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = o.Generate(context.Background(), Request{Assets: testAssets(t)})
	assert.ErrorIs(t, err, ErrNoCondition)

	_, err = o.Generate(context.Background(), Request{Assets: testAssets(t), Condition: "Loistava"})
	assert.ErrorIs(t, err, ErrNoCondition)

	assert.Equal(t, 0, gen.calls())
	assert.False(t, o.Busy())
}

func TestGenerate_BusyWhileInFlight(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	gen.started = make(chan struct{}, 2)
	gen.release = make(chan struct{})
	o := newTestOrchestrator(gen, nil)
	req := Request{Assets: testAssets(t), Condition: ConditionGood}

	done := make(chan error, 1)
	go func() {
		_, err := o.Generate(context.Background(), req)
		done <- err
	}()
	<-gen.started

	_, err := o.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, o.Busy())
	assert.Equal(t, 1, gen.calls())

	close(gen.release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, gen.calls())
	assert.False(t, o.Busy())
}

func TestGenerate_FailureKeepsLastResult(t *testing.T) {
	gen := newFakeGenerator(
		reply{text: listingReply},
		reply{text: insightsReply},
		reply{text: "BRAND --- Other --- Other body"},
		reply{err: &llm.ProviderError{StatusCode: 429, Message: "quota"}},
	)
	history := &mockHistory{}
	history.On("Record", mock.Anything).Return()
	o := newTestOrchestrator(gen, history)
	req := Request{Assets: testAssets(t), Condition: ConditionGood}

	first, err := o.Generate(context.Background(), req)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), req)
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "insights", genErr.Step)
	assert.Equal(t, LanguageFinnish.GenerationFailedMessage(), genErr.Message)

	var provErr *llm.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, 429, provErr.StatusCode)

	assert.Same(t, first, o.Last())
	assert.Equal(t, "Marimekko mekko M", o.Last().Listing.Title)
	history.AssertNumberOfCalls(t, "Record", 1)
	assert.Equal(t, "", o.Status())
}

func TestGenerate_TransportErrorAborts(t *testing.T) {
	gen := newFakeGenerator(reply{err: llm.ErrTransport})
	o := newTestOrchestrator(gen, nil)

	_, err := o.Generate(context.Background(), Request{Assets: testAssets(t), Condition: ConditionGood})
	assert.ErrorIs(t, err, llm.ErrTransport)
	assert.Equal(t, 1, gen.calls(), "second request is not made")
	assert.Nil(t, o.Last())
}

func TestGenerate_StatusObserver(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	o := newTestOrchestrator(gen, nil)

	var statuses []string
	o.OnStatus(func(s string) { statuses = append(statuses, s) })

	_, err := o.Generate(context.Background(), Request{Assets: testAssets(t), Condition: ConditionGood})
	require.NoError(t, err)
	assert.Equal(t, []string{StatusAnalyzingFi, StatusFinalizingFi, ""}, statuses)
}

func TestGenerate_StatusClearedOnFailure(t *testing.T) {
	gen := newFakeGenerator(reply{err: errors.New("boom")})
	o := newTestOrchestrator(gen, nil)

	var statuses []string
	o.OnStatus(func(s string) { statuses = append(statuses, s) })

	_, err := o.Generate(context.Background(), Request{Assets: testAssets(t), Condition: ConditionGood})
	require.Error(t, err)
	assert.Equal(t, []string{StatusAnalyzingFi, ""}, statuses)
}

func TestGenerate_RecordsIntoHistoryStore(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	backend := storage.NewMemoryHistoryBackend()
	history := storage.NewHistory(backend)
	o := newTestOrchestrator(gen, history)

	_, err := o.Generate(context.Background(), Request{Assets: testAssets(t), Condition: ConditionGood})
	require.NoError(t, err)
	history.Flush()

	persisted, err := backend.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "Marimekko mekko M", persisted[0].Title)
}

func TestGenerate_WritesTranscript(t *testing.T) {
	gen := newFakeGenerator(reply{text: listingReply}, reply{text: insightsReply})
	o := newTestOrchestrator(gen, nil)
	tr, err := NewTranscript(t.TempDir(), "draft-1")
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), Request{
		Assets:     testAssets(t),
		Condition:  ConditionGood,
		Transcript: tr,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(tr.Path())
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "=== Listing Log ===\nDraft: draft-1\n"))
	assert.Contains(t, content, "USER  condition=good images=2")
	assert.Contains(t, content, "LLM   BRAND: Marimekko")
	assert.Contains(t, content, "STATE insights request for \"Marimekko mekko M\"")
}
