package flows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlow() *Flow {
	return &Flow{
		Category: "test",
		Title:    "Test flow",
		Questions: []Question{
			{
				ID: "q0", Text: "First?", Kind: KindSingleSelect,
				Options: []Option{
					{Label: "Yes", Value: "yes", IsRedFlag: true, RiskWeight: 3, Description: "said yes"},
					{Label: "No", Value: "no", IsBestPractice: true, Description: "said no"},
				},
				NextByAnswer: map[string]int{"no": 2},
			},
			{
				ID: "q1", Text: "Second?", Kind: KindSingleSelect,
				Options: []Option{{Label: "Maybe", Value: "maybe"}},
			},
		},
	}
}

func TestDefaults_AllValid(t *testing.T) {
	defaults := Defaults()
	for category, f := range defaults {
		assert.Equal(t, category, f.Category)
		assert.Equal(t, DefaultVersion, f.Version)
		assert.NoError(t, Validate(f), "built-in flow %s", category)
	}
}

func TestDefaults_CoverMenu(t *testing.T) {
	defaults := Defaults()
	menu := MenuCategories()
	assert.Len(t, defaults, len(menu))
	for _, category := range menu {
		f, ok := defaults[category]
		require.True(t, ok, "menu category %s has no flow", category)
		assert.NotZero(t, f.Len())
		assert.NotEmpty(t, f.Title)
	}
}

func TestDefaults_FreshCopies(t *testing.T) {
	a := Defaults()
	a[CategoryMarketplace].Questions[0].Text = "changed"
	b := Defaults()
	assert.NotEqual(t, "changed", b[CategoryMarketplace].Questions[0].Text)
}

func TestDefaults_OptionsCarryDescriptions(t *testing.T) {
	for category, f := range Defaults() {
		for _, q := range f.Questions {
			if q.Kind == KindRouting {
				continue
			}
			for _, o := range q.Options {
				assert.NotEmpty(t, o.Description, "%s/%s/%s", category, q.ID, o.Value)
			}
		}
	}
}

func TestDefaults_OwnAccountTransferBranch(t *testing.T) {
	f := Defaults()[CategoryOwnAccountTransfer]
	q := f.Question(5)
	require.NotNil(t, q)
	assert.Equal(t, "Does anyone else have access to the app?", q.Text)
	assert.Equal(t, 6, q.Next(5, "yes"))
	assert.Equal(t, f.Len(), q.Next(5, "no"))
	assert.Equal(t, f.Len(), q.Next(5, "dont-know"))
	assert.Equal(t, "Who has access to the app?", f.Question(6).Text)
}

func TestDefaults_OtherStartsWithRouting(t *testing.T) {
	f := Defaults()[CategoryOther]
	assert.Equal(t, KindRouting, f.Questions[0].Kind)
	for _, q := range f.Questions[1:] {
		assert.Equal(t, KindSingleSelect, q.Kind)
	}
}

func TestQuestion_OptionLookup(t *testing.T) {
	q := validFlow().Questions[0]
	require.NotNil(t, q.Option("yes"))
	assert.True(t, q.Option("yes").IsRedFlag)
	assert.Nil(t, q.Option("unknown"))
}

func TestQuestion_Next(t *testing.T) {
	f := validFlow()
	assert.Equal(t, 2, f.Questions[0].Next(0, "no"))
	assert.Equal(t, 1, f.Questions[0].Next(0, "yes"))
	assert.Equal(t, 1, f.Questions[0].Next(0, "not-an-option"))
	assert.Equal(t, 2, f.Questions[1].Next(1, "maybe"))
}

func TestFlow_QuestionBounds(t *testing.T) {
	f := validFlow()
	assert.Nil(t, f.Question(-1))
	assert.Nil(t, f.Question(2))
	assert.NotNil(t, f.Question(1))

	var nilFlow *Flow
	assert.Equal(t, 0, nilFlow.Len())
	assert.Nil(t, nilFlow.Question(0))
	assert.Nil(t, nilFlow.Clone())
}

func TestFlow_CloneIsDeep(t *testing.T) {
	f := validFlow()
	f.Questions[0].Options[0].Suggests = []string{"marketplace"}
	f.Reassurances = []Reassurance{{Answers: []string{"no"}, Summary: "ok"}}

	cp := f.Clone()
	cp.Questions[0].Options[0].Label = "changed"
	cp.Questions[0].Options[0].Suggests[0] = "changed"
	cp.Questions[0].NextByAnswer["no"] = 1
	cp.Reassurances[0].Answers[0] = "yes"

	assert.Equal(t, "Yes", f.Questions[0].Options[0].Label)
	assert.Equal(t, "marketplace", f.Questions[0].Options[0].Suggests[0])
	assert.Equal(t, 2, f.Questions[0].NextByAnswer["no"])
	assert.Equal(t, "no", f.Reassurances[0].Answers[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Flow)
	}{
		{"missing category", func(f *Flow) { f.Category = "" }},
		{"no questions", func(f *Flow) { f.Questions = nil }},
		{"missing question id", func(f *Flow) { f.Questions[1].ID = "" }},
		{"duplicate question id", func(f *Flow) { f.Questions[1].ID = "q0" }},
		{"missing text", func(f *Flow) { f.Questions[0].Text = "" }},
		{"unknown kind", func(f *Flow) { f.Questions[0].Kind = "free_text" }},
		{"empty options", func(f *Flow) { f.Questions[1].Options = nil }},
		{"empty option value", func(f *Flow) { f.Questions[0].Options[0].Value = "" }},
		{"duplicate option value", func(f *Flow) { f.Questions[0].Options[1].Value = "yes" }},
		{"red flag and best practice", func(f *Flow) { f.Questions[0].Options[0].IsBestPractice = true }},
		{"negative weight", func(f *Flow) { f.Questions[0].Options[1].RiskWeight = -1 }},
		{"jump for unknown option", func(f *Flow) { f.Questions[0].NextByAnswer["maybe"] = 2 }},
		{"backward jump", func(f *Flow) { f.Questions[1].NextByAnswer = map[string]int{"maybe": 0} }},
		{"self jump", func(f *Flow) { f.Questions[0].NextByAnswer["no"] = 0 }},
		{"jump past end", func(f *Flow) { f.Questions[0].NextByAnswer["no"] = 3 }},
		{"empty reassurance", func(f *Flow) { f.Reassurances = []Reassurance{{Summary: "ok"}} }},
	}

	assert.NoError(t, Validate(validFlow()))
	assert.ErrorIs(t, Validate(nil), ErrInvalidFlow)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := validFlow()
			tc.mutate(f)
			assert.ErrorIs(t, Validate(f), ErrInvalidFlow)
		})
	}
}

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetFlow(ctx, "test")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	f := validFlow()
	require.NoError(t, s.SaveFlow(ctx, f))
	assert.Equal(t, 1, f.Version)
	assert.False(t, f.UpdatedAt.IsZero())

	require.NoError(t, s.SaveFlow(ctx, validFlow()))
	got, err := s.GetFlow(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)

	// Returned flows are copies.
	got.Questions[0].Text = "mutated"
	again, _ := s.GetFlow(ctx, "test")
	assert.Equal(t, "First?", again.Questions[0].Text)

	list, err := s.ListFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteFlow(ctx, "test"))
	assert.ErrorIs(t, s.DeleteFlow(ctx, "test"), ErrFlowNotFound)
}

func TestDefaultMemoryStore_Seeded(t *testing.T) {
	s := NewDefaultMemoryStore()
	list, err := s.ListFlows(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(MenuCategories()))
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Category, list[i].Category)
	}
}

func TestFileStore_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "test.yaml"), validFlow()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	s, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, dir, s.Dir())

	f, err := s.GetFlow(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, validFlow().Questions, f.Questions)

	assert.ErrorIs(t, s.SaveFlow(context.Background(), f), ErrReadOnly)
	assert.ErrorIs(t, s.DeleteFlow(context.Background(), "test"), ErrReadOnly)
}

func TestFileStore_MissingDirIsEmpty(t *testing.T) {
	s, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestFileStore_InvalidFileRejected(t *testing.T) {
	dir := t.TempDir()
	bad := validFlow()
	bad.Questions[0].Options[1].Value = "yes"
	require.NoError(t, WriteFile(filepath.Join(dir, "bad.yml"), bad))

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestFileStore_DuplicateCategoryRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "a.yaml"), validFlow()))
	require.NoError(t, WriteFile(filepath.Join(dir, "b.yaml"), validFlow()))

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrInvalidFlow)
}

func TestLoadFile_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions: [unterminated"), 0o644))
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidFlow))
}

func TestLayeredStore_OverrideWins(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	override := Defaults()[CategoryMarketplace]
	override.Title = "Local marketplace flow"
	require.NoError(t, WriteFile(filepath.Join(dir, "marketplace.yaml"), override))

	files, err := LoadDir(dir)
	require.NoError(t, err)
	s := NewLayeredStore(NewDefaultMemoryStore(), files)

	f, err := s.GetFlow(ctx, CategoryMarketplace)
	require.NoError(t, err)
	assert.Equal(t, "Local marketplace flow", f.Title)

	f, err = s.GetFlow(ctx, CategoryGiftCard)
	require.NoError(t, err)
	assert.Equal(t, CategoryGiftCard, f.Category)

	_, err = s.GetFlow(ctx, "unknown")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	list, err := s.ListFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(MenuCategories()))
	for _, lf := range list {
		if lf.Category == CategoryMarketplace {
			assert.Equal(t, "Local marketplace flow", lf.Title)
		}
	}
}

type failingSource struct{ err error }

func (f failingSource) GetFlow(ctx context.Context, category string) (*Flow, error) {
	return nil, f.err
}

func TestLayeredStore_OverrideErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	s := NewLayeredStore(NewDefaultMemoryStore(), failingSource{err: boom})
	_, err := s.GetFlow(context.Background(), CategoryMarketplace)
	assert.ErrorIs(t, err, boom)
}

func TestLayeredStore_WritesGoToBase(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	s := NewLayeredStore(base, failingSource{err: ErrFlowNotFound})

	require.NoError(t, s.SaveFlow(ctx, validFlow()))
	_, err := base.GetFlow(ctx, "test")
	require.NoError(t, err)

	require.NoError(t, s.DeleteFlow(ctx, "test"))
	_, err = base.GetFlow(ctx, "test")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}
