package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pipelineFixture struct {
	store     *memoryStore
	completer *scriptedCompleter
	renderer  *titleRenderer
	notifier  *recordingNotifier
	pipeline  *BatchPipeline
}

func newPipelineFixture(t *testing.T, trackBy string) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		store:     newMemoryStore("out"),
		completer: &scriptedCompleter{respond: projectAnswers},
		renderer:  &titleRenderer{},
		notifier:  &recordingNotifier{},
	}
	cfg := ExtractorConfig{MaxTokens: 150, Temperature: 0.5, TrackBy: trackBy}
	registry := suffixRegistry{parser: lineParser{date: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)}}

	f.pipeline = NewBatchPipeline(
		f.store,
		registry,
		NewFieldExtractor(f.completer, passthroughCleaner{}, zap.NewNop(), cfg),
		NewSummarizer(f.completer, zap.NewNop(), cfg),
		f.renderer,
		f.renderer,
		f.notifier,
		zap.NewNop(),
		PipelineConfig{InputPath: "in", OutputPath: "out"},
	)
	return f
}

func (f *pipelineFixture) seedScenario() {
	f.store.put("in", "01-alpha.msg", []byte("Alpha\nAlpha rollout for the retail client"))
	f.store.put("in", "02-beta.msg", []byte("Beta\nBeta migration finished"))
	f.store.put("in", "03-gamma.msg", []byte("Gamma\nGamma was summarized last week"))
	f.store.put("in", "readme.txt", []byte("not an archive"))
	f.store.put("out", ManifestArtifact, []byte(`{"processed_emails":["Gamma"]}`))
}

func (f *pipelineFixture) manifest(t *testing.T) []string {
	t.Helper()
	data, ok := f.store.get("out", ManifestArtifact)
	require.True(t, ok)
	set, err := DecodeManifest(data)
	require.NoError(t, err)
	return set.IDs()
}

func TestRunProcessesOnlyNewEmails(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Listed)
	assert.Equal(t, []string{"Alpha", "Beta"}, report.Processed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 3, report.Tracked)
	assert.NotEmpty(t, report.RunID)

	// two emails, fifteen calls each; Gamma never reaches the backend
	assert.Equal(t, 2*(len(AllFields)+len(NarrativeFields)), f.completer.calls())

	assert.Equal(t, []string{DocumentArtifact, TableArtifact, ManifestArtifact}, f.store.uploads)
	assert.Equal(t, []string{DocumentArtifact, TableArtifact, ManifestArtifact}, report.Artifacts)

	require.Len(t, f.renderer.docs, 1)
	require.Len(t, f.renderer.tables, 1)
	assert.Len(t, f.renderer.docs[0], 2)
	assert.Len(t, f.renderer.tables[0], 2)

	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, f.manifest(t))
	require.Len(t, f.notifier.reports, 1)
}

func TestRunArtifactsStayAligned(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	docs, tables := f.renderer.docs[0], f.renderer.tables[0]
	require.Equal(t, len(docs), len(tables))
	for i := range docs {
		assert.Equal(t, docs[i].ProjectTitle, tables[i].ProjectTitle)
		assert.Equal(t, docs[i].ClientName, tables[i].ClientName)
		assert.Equal(t, docs[i].CompletionDate, tables[i].CompletionDate)
		assert.Equal(t, "brief: "+docs[i].ValueCreated, tables[i].ValueCreated)
	}

	doc, _ := f.store.get("out", DocumentArtifact)
	table, _ := f.store.get("out", TableArtifact)
	assert.Equal(t, "Alpha\nBeta\n", string(doc))
	assert.Equal(t, string(doc), string(table))
}

func TestRunIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	uploads := len(f.store.uploads)
	calls := f.completer.calls()
	before, _ := f.store.get("out", ManifestArtifact)

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Processed)
	assert.Empty(t, report.Artifacts)
	assert.Equal(t, uploads, len(f.store.uploads))
	assert.Equal(t, calls, f.completer.calls())
	after, _ := f.store.get("out", ManifestArtifact)
	assert.Equal(t, before, after)
	assert.Len(t, f.notifier.reports, 1)
}

func TestRunTitleTrackingIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.store.put("in", "a.msg", []byte("Status report\nAtlas went live"))
	f.store.put("in", "b.msg", []byte("Kickoff notes\nBoreal scoped"))

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlas", "Boreal"}, f.manifest(t))
	uploads := len(f.store.uploads)
	calls := f.completer.calls()
	before, _ := f.store.get("out", ManifestArtifact)

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Processed)
	assert.Empty(t, report.Artifacts)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, uploads, len(f.store.uploads))
	// one title completion per known email
	assert.Equal(t, calls+2, f.completer.calls())
	after, _ := f.store.get("out", ManifestArtifact)
	assert.Equal(t, before, after)
	assert.Len(t, f.notifier.reports, 1)
}

func TestRunTitleTrackingSkipsSharedTitle(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.store.put("in", "a.msg", []byte("Weekly update 12\nAtlas shipped"))
	f.store.put("in", "b.msg", []byte("Weekly update 13\nAtlas hypercare started"))

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlas", "Atlas"}, report.Processed)
	assert.Equal(t, []string{"Atlas"}, f.manifest(t))
	uploads := len(f.store.uploads)
	calls := f.completer.calls()

	f.store.put("in", "c.msg", []byte("Weekly update 14\nAtlas closed out"))
	report, err = f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Processed)
	assert.Equal(t, uploads, len(f.store.uploads))
	assert.Equal(t, calls+3, f.completer.calls())
	assert.Equal(t, []string{"Atlas"}, f.manifest(t))
}

func TestRunSubjectTrackingIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, KeySubject)
	f.store.put("in", "a.msg", []byte("Status report\nAtlas went live"))

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	uploads := len(f.store.uploads)
	calls := f.completer.calls()

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Processed)
	assert.Equal(t, uploads, len(f.store.uploads))
	assert.Equal(t, calls, f.completer.calls())
	assert.Equal(t, []string{"Status report"}, f.manifest(t))
}

func TestRunSingleFieldFailureIsContained(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()
	f.completer.respond = func(instruction, content string) (string, error) {
		if instruction == "Extract the industry related to the project:" && content == "Beta migration finished" {
			return "", errBackend
		}
		return projectAnswers(instruction, content)
	}

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	records := f.renderer.docs[0]
	require.Len(t, records, 2)
	alpha, beta := records[0], records[1]

	assert.Equal(t, NotProvided, beta.Industry)
	assert.Equal(t, "answer to Extract the industry related to the project:", alpha.Industry)
	for _, field := range AllFields {
		if field == FieldIndustry {
			continue
		}
		assert.NotEqual(t, NotProvided, beta.Get(field), field.String())
	}
}

func TestRunSubjectTracking(t *testing.T) {
	f := newPipelineFixture(t, KeySubject)
	f.store.put("in", "a.msg", []byte("Weekly update 12\nAtlas shipped"))

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Weekly update 12"}, f.manifest(t))
}

func TestRunTitleFallsBackToSubject(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.completer.respond = func(instruction, content string) (string, error) {
		if instruction == "Extract the project title:" {
			return "", errBackend
		}
		return projectAnswers(instruction, content)
	}
	f.store.put("in", "a.msg", []byte("Weekly update 12\nAtlas shipped"))

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Weekly update 12"}, f.manifest(t))
}

func TestRunSkipsBrokenItems(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.store.put("in", "a.msg", []byte("Alpha\nAlpha body"))
	f.store.put("in", "b.msg", []byte("no newline means unparseable"))
	f.store.put("in", "c.msg", []byte("Gamma\nGamma body"))
	f.store.put("in", "d.msg", []byte("Delta\n   "))
	f.store.failOn["c.msg"] = &TransportError{Op: "download c.msg", Code: 401, Message: "unauthorized"}

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, report.Processed)
	assert.Equal(t, []string{"Alpha"}, f.manifest(t))
}

func TestRunEmptyBatchLeavesRemoteUntouched(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.store.put("in", "notes.txt", []byte("nothing"))

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Listed)
	assert.Empty(t, f.store.uploads)
	_, ok := f.store.get("out", ManifestArtifact)
	assert.False(t, ok)
	assert.Empty(t, f.notifier.reports)
}

func TestRunAllFieldsFailingSkipsItem(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.completer.respond = func(string, string) (string, error) { return "", errBackend }
	f.store.put("in", "a.msg", []byte("Alpha\nAlpha body"))

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Processed)
	assert.Empty(t, f.store.uploads)
}

func TestRunListFailureAborts(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.store.listErr = &TransportError{Op: "list in", Code: 403, Message: "forbidden"}

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailure)
	assert.Empty(t, f.store.uploads)
}

func TestRunRenderFailureUploadsNothing(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()
	f.renderer.err = errors.New("bad template")

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.store.uploads)
	assert.Equal(t, []string{"Gamma"}, f.manifest(t))
}

func TestRunUploadFailureKeepsManifest(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()
	f.store.uploadErr[TableArtifact] = errors.New("disk full")

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{DocumentArtifact}, f.store.uploads)
	assert.Equal(t, []string{"Gamma"}, f.manifest(t))
}

func TestRunPersistFailureSurfaces(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()
	f.store.uploadErr[ManifestArtifact] = errors.New("locked")

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.notifier.reports)
}

func TestRunNotifierFailureIsNotFatal(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()
	f.notifier.err = errors.New("smtp down")

	_, err := f.pipeline.Run(context.Background())
	assert.NoError(t, err)
}

func TestRunCancelled(t *testing.T) {
	f := newPipelineFixture(t, KeyTitle)
	f.seedScenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.uploads)
}
