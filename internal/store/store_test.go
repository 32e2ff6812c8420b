package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FupanBot/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLoad_MissingYieldsFreshLedger(t *testing.T) {
	s := testStore(t)
	l := s.Load("u1", DM())
	assert.Equal(t, "u1", l.UserID)
	assert.Empty(t, l.Checkins)
	assert.Zero(t, l.TotalCount)
	assert.Zero(t, l.StrikeCount)
}

func TestLoad_CorruptYieldsFreshLedger(t *testing.T) {
	s := testStore(t)
	path := filepath.Join(s.Dir(), fileName("u1", DM()))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := s.Load("u1", DM())
	assert.Equal(t, "u1", l.UserID)
	assert.Empty(t, l.Checkins)
}

func TestLoad_MigratesMissingStrikeCount(t *testing.T) {
	s := testStore(t)
	// Record written before streak tracking existed.
	legacy := `{"user_id":"u1","nickname":"n","checkins":[{"date":"2025-06-02","timestamp":1,"trading_day":"2025-06-02","context":"private"}],"total_count":1}`
	path := filepath.Join(s.Dir(), fileName("u1", DM()))
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	l := s.Load("u1", DM())
	assert.Equal(t, 0, l.StrikeCount)
	assert.Equal(t, 1, l.TotalCount)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	s := testStore(t)
	sc := Group("123")
	l := model.NewUserLedger("u1")
	l.Nickname = "trader"
	l.Checkins = append(l.Checkins, model.CheckinRecord{
		Date:           "2025-06-02",
		Timestamp:      1748872800,
		TradingDay:     "2025-06-02",
		NextTradingDay: "2025-06-03",
		Context:        model.ContextGroup,
		Conclusion:     "高开低走",
	})
	l.TotalCount = 1
	l.StrikeCount = 1
	s.Save("u1", sc, l)

	got := s.Load("u1", sc)
	assert.Equal(t, l, got)
}

func TestListAll_FiltersByScope(t *testing.T) {
	s := testStore(t)
	s.Save("u1", DM(), model.NewUserLedger("u1"))
	s.Save("u2", Group("123"), model.NewUserLedger("u2"))
	s.Save("u3", Group("456"), model.NewUserLedger("u3"))

	g := Group("123")
	got := s.ListAll(func(sc Scope) bool { return sc == g })
	require.Len(t, got, 1)
	assert.Equal(t, "u2", got[0].UserID)

	dm := s.ListAll(func(sc Scope) bool { return !sc.IsGroup() })
	require.Len(t, dm, 1)
	assert.Equal(t, "u1", dm[0].UserID)
}

func TestDeleteMatching_OnlyTargetScope(t *testing.T) {
	s := testStore(t)
	s.Save("u1", DM(), model.NewUserLedger("u1"))
	s.Save("u2", Group("123"), model.NewUserLedger("u2"))
	s.Save("u3", Group("123"), model.NewUserLedger("u3"))
	s.Save("u4", Group("456"), model.NewUserLedger("u4"))

	g := Group("123")
	removed := s.DeleteMatching(func(sc Scope) bool { return sc == g })
	assert.Equal(t, 2, removed)

	assert.Empty(t, s.ListAll(func(sc Scope) bool { return sc == g }))
	assert.Len(t, s.ListAll(func(sc Scope) bool { return sc == Group("456") }), 1)
	assert.Len(t, s.ListAll(func(sc Scope) bool { return !sc.IsGroup() }), 1)
}

func TestGroupIDs(t *testing.T) {
	s := testStore(t)
	s.Save("u1", Group("123"), model.NewUserLedger("u1"))
	s.Save("u2", Group("123"), model.NewUserLedger("u2"))
	s.Save("u3", Group("456"), model.NewUserLedger("u3"))
	s.Save("u4", DM(), model.NewUserLedger("u4"))

	assert.ElementsMatch(t, []string{"123", "456"}, s.GroupIDs())
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name     string
		wantUser string
		wantScp  Scope
		wantOK   bool
	}{
		{"checkin_u1_dm.json", "u1", DM(), true},
		{"checkin_u1_group_123.json", "u1", Group("123"), true},
		{"checkin_a_b_group_9.json", "a_b", Group("9"), true},
		{"group_sessions.json", "", Scope{}, false},
		{"checkin_.json", "", Scope{}, false},
		{"checkin_u1_group_.json", "", Scope{}, false},
		{"checkin_u1_dm.json.tmp", "", Scope{}, false},
	}
	for _, tt := range tests {
		uid, sc, ok := parseFileName(tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
		if tt.wantOK {
			assert.Equal(t, tt.wantUser, uid, tt.name)
			assert.Equal(t, tt.wantScp, sc, tt.name)
		}
	}
}

func TestFileNameRoundtrip(t *testing.T) {
	for _, sc := range []Scope{DM(), Group("42")} {
		uid, got, ok := parseFileName(fileName("user9", sc))
		require.True(t, ok)
		assert.Equal(t, "user9", uid)
		assert.Equal(t, sc, got)
	}
}

func TestRegistry_Persistence(t *testing.T) {
	dir := t.TempDir()
	r := LoadRegistry(dir)
	r.Set("123", "chat-123")
	r.Set("456", "chat-456")

	reloaded := LoadRegistry(dir)
	got, ok := reloaded.Get("123")
	require.True(t, ok)
	assert.Equal(t, "chat-123", got)
	assert.Equal(t, map[string]string{"123": "chat-123", "456": "chat-456"}, reloaded.Snapshot())
}

func TestRegistry_CorruptStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, registryFile), []byte("nope"), 0o644))
	r := LoadRegistry(dir)
	assert.Empty(t, r.Snapshot())
}
