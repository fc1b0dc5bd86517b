package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/lumina/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_Validation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetOrCreate(ctx, "", "ProjectA", "", false)
		assert.ErrorIs(t, err, core.ErrUserIDRequired)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := store.GetOrCreate(ctx, "user1", "", "", false)
		assert.ErrorIs(t, err, core.ErrProjectIDRequired)
	})
}

func TestGetOrCreate_CreatesWhenEmpty(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.NotEmpty(t, sess.ID())
	assert.Empty(t, sess.History())
	assert.Equal(t, 0, sess.MessageCount())
	assert.Contains(t, sess.Name(), "Session ")
}

func TestGetOrCreate_ReturnsSameSessionWhenOneExists(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)

	second, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())

	third, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), third.ID())
}

func TestGetOrCreate_ForceNewAlwaysCreates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		sess, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", true)
		require.NoError(t, err)
		assert.False(t, seen[sess.ID()], "forceNew returned a previously seen session id")
		seen[sess.ID()] = true
	}
}

func TestGetOrCreate_ExplicitID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created, err := store.GetOrCreate(ctx, "user1", "ProjectA", "my-session", true)
	require.NoError(t, err)
	assert.Equal(t, "my-session", created.ID())

	// Explicit id resolves to the same session.
	got, err := store.GetOrCreate(ctx, "user1", "ProjectA", "my-session", false)
	require.NoError(t, err)
	assert.Equal(t, "my-session", got.ID())

	// Unknown explicit id falls back to an existing session rather than failing.
	fallback, err := store.GetOrCreate(ctx, "user1", "ProjectA", "no-such-session", false)
	require.NoError(t, err)
	assert.Equal(t, "my-session", fallback.ID())
}

func TestGetOrCreate_MostRecentlyAccessedWins(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	older, err := store.GetOrCreate(ctx, "user1", "ProjectA", "older", true)
	require.NoError(t, err)
	newer, err := store.GetOrCreate(ctx, "user1", "ProjectA", "newer", true)
	require.NoError(t, err)

	// Touch the older one so it becomes the most recently accessed.
	older.Touch()
	_ = newer

	got, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)
	assert.Equal(t, "older", got.ID())
}

func TestHistory_RoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)

	sess.Append(core.RoleHuman, "hi")
	sess.Append(core.RoleAI, "hello")

	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleHuman, history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, core.RoleAI, history[1].Role)
	assert.Equal(t, "hello", history[1].Content)
}

func TestClearHistory(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "user1", "ProjectA", "s1", true)
	require.NoError(t, err)
	sess.SetName("sprint planning")
	sess.Append(core.RoleHuman, "hi")
	sess.Append(core.RoleAI, "hello")
	sess.IncrementMessageCount()

	createdAt := sess.CreatedAt()

	ok := store.ClearHistory(ctx, "user1", "ProjectA", "s1")
	require.True(t, ok)

	assert.Empty(t, sess.History())
	assert.Equal(t, 0, sess.MessageCount())
	assert.Equal(t, "sprint planning", sess.Name())
	assert.Equal(t, createdAt, sess.CreatedAt())
	assert.Equal(t, "s1", sess.ID())

	t.Run("absent session", func(t *testing.T) {
		assert.False(t, store.ClearHistory(ctx, "user1", "ProjectA", "nope"))
		assert.False(t, store.ClearHistory(ctx, "ghost", "ProjectA", "s1"))
	})
}

func TestDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "user1", "ProjectA", "s1", true)
	require.NoError(t, err)

	require.True(t, store.Delete(ctx, "user1", "ProjectA", "s1"))
	assert.False(t, store.Delete(ctx, "user1", "ProjectA", "s1"))

	// With the project empty again, a non-forced GetOrCreate creates a
	// brand-new session.
	fresh, err := store.GetOrCreate(ctx, "user1", "ProjectA", "", false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), fresh.ID())
	assert.Empty(t, fresh.History())
}

func TestRename(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "user1", "ProjectA", "s1", true)
	require.NoError(t, err)

	require.True(t, store.Rename(ctx, "user1", "ProjectA", "s1", "standup notes"))
	infos := store.List(ctx, "user1", "ProjectA")
	assert.Equal(t, "standup notes", infos["s1"].Name)

	assert.False(t, store.Rename(ctx, "user1", "ProjectA", "missing", "x"))
}

func TestList(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "user1", "ProjectA", "a1", true)
	require.NoError(t, err)
	_, err = store.GetOrCreate(ctx, "user1", "ProjectA", "a2", true)
	require.NoError(t, err)
	_, err = store.GetOrCreate(ctx, "user1", "ProjectB", "b1", true)
	require.NoError(t, err)

	t.Run("single project", func(t *testing.T) {
		infos := store.List(ctx, "user1", "ProjectA")
		assert.Len(t, infos, 2)
		assert.Contains(t, infos, "a1")
		assert.Contains(t, infos, "a2")
	})

	t.Run("all projects", func(t *testing.T) {
		all := store.ListAll(ctx, "user1")
		require.Len(t, all, 2)
		assert.Len(t, all["ProjectA"], 2)
		assert.Len(t, all["ProjectB"], 1)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.Empty(t, store.List(ctx, "ghost", "ProjectA"))
		assert.Empty(t, store.ListAll(ctx, "ghost"))
	})
}

func TestIncrementMessageCount(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "user1", "ProjectA", "s1", true)
	require.NoError(t, err)

	before := sess.LastAccessed()
	require.True(t, store.IncrementMessageCount(ctx, "user1", "ProjectA", "s1"))
	require.True(t, store.IncrementMessageCount(ctx, "user1", "ProjectA", "s1"))

	assert.Equal(t, 2, sess.MessageCount())
	assert.False(t, sess.LastAccessed().Before(before))

	assert.False(t, store.IncrementMessageCount(ctx, "user1", "ProjectA", "missing"))
}

func TestConcurrentAppends(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "user1", "ProjectA", "s1", true)
	require.NoError(t, err)

	const writers = 16
	const perWriter = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				sess.Append(core.RoleHuman, "ping")
				store.IncrementMessageCount(ctx, "user1", "ProjectA", "s1")
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sess.History(), writers*perWriter)
	assert.Equal(t, writers*perWriter, sess.MessageCount())
}
