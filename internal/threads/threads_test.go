package threads

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/insight/backend/internal/models"
)

func ptr(id int64) *int64 {
	return &id
}

func comment(id int64, parent *int64) *models.Comment {
	return &models.Comment{ID: id, PostID: 1, Content: "c", ParentCommentID: parent}
}

func ids(cs []*models.Comment) []int64 {
	out := make([]int64, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestBuild_OrphanKept(t *testing.T) {
	flat := []*models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(99)),
	}

	tree := Build(flat)

	require.Equal(t, []int64{1, 3}, ids(tree.Roots))
	require.Equal(t, []int64{2}, ids(tree.Roots[0].Replies))
	require.Empty(t, tree.Roots[1].Replies)
	require.Equal(t, 3, tree.Len())

	require.Len(t, tree.Orphans, 1)
	assert.True(t, errors.Is(tree.Orphans[0], ErrOrphanReply))
	assert.Equal(t, int64(3), tree.Orphans[0].CommentID)
	assert.Equal(t, int64(99), tree.Orphans[0].ParentID)
}

func TestBuild_SiblingOrder(t *testing.T) {
	flat := []*models.Comment{
		comment(10, nil),
		comment(5, ptr(10)),
		comment(11, nil),
		comment(3, ptr(10)),
		comment(7, ptr(5)),
		comment(4, ptr(10)),
	}

	tree := Build(flat)

	require.Equal(t, []int64{10, 11}, ids(tree.Roots))
	require.Equal(t, []int64{5, 3, 4}, ids(tree.Roots[0].Replies))
	require.Equal(t, []int64{7}, ids(tree.Roots[0].Replies[0].Replies))
	require.Empty(t, tree.Orphans)
}

func TestBuild_ReplyBeforeParent(t *testing.T) {
	tree := Build([]*models.Comment{
		comment(2, ptr(1)),
		comment(1, nil),
	})

	require.Equal(t, []int64{1}, ids(tree.Roots))
	require.Equal(t, []int64{2}, ids(tree.Roots[0].Replies))
}

func TestBuild_Idempotent(t *testing.T) {
	flat := []*models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(2)),
		comment(4, ptr(99)),
		comment(5, nil),
	}

	first := Build(flat)
	second := Build(flat)

	require.Equal(t, first.Roots, second.Roots)
	require.Equal(t, first.Orphans, second.Orphans)

	// input is untouched
	for _, c := range flat {
		require.Nil(t, c.Replies)
	}
}

func TestBuild_Cycle(t *testing.T) {
	flat := []*models.Comment{
		comment(1, ptr(2)),
		comment(2, ptr(1)),
		comment(3, ptr(1)),
	}

	tree := Build(flat)

	require.Equal(t, []int64{1, 2}, ids(tree.Roots))
	require.Equal(t, []int64{3}, ids(tree.Roots[0].Replies))
	require.Len(t, tree.Orphans, 2)
}

func TestBuild_Empty(t *testing.T) {
	tree := Build(nil)

	require.NotNil(t, tree.Roots)
	require.Empty(t, tree.Roots)
	require.Zero(t, tree.Len())
}

func TestBuild_DeepChain(t *testing.T) {
	const n = 20000
	flat := make([]*models.Comment, 0, n)
	flat = append(flat, comment(1, nil))
	for i := int64(1); i < n; i++ {
		flat = append(flat, comment(i+1, ptr(i)))
	}

	start := time.Now()
	tree := Build(flat)
	require.Less(t, time.Since(start), time.Second)

	require.Equal(t, []int64{1}, ids(tree.Roots))
	require.Empty(t, tree.Orphans)
	require.Equal(t, n, tree.Len())

	depth := 0
	for c := tree.Roots[0]; len(c.Replies) > 0; c = c.Replies[0] {
		depth++
	}
	require.Equal(t, n-1, depth)
}

func TestBuild_ChainIntoCycle(t *testing.T) {
	// 4 -> 3 -> 2 -> 3: only 2 and 3 loop, 4 hangs off 3.
	flat := []*models.Comment{
		comment(1, nil),
		comment(2, ptr(3)),
		comment(3, ptr(2)),
		comment(4, ptr(3)),
	}

	tree := Build(flat)

	require.Equal(t, []int64{1, 2, 3}, ids(tree.Roots))
	require.Len(t, tree.Orphans, 2)
	require.Equal(t, []int64{4}, ids(tree.Roots[2].Replies))
}

func TestNormalizeContent(t *testing.T) {
	_, err := NormalizeContent("  ")
	require.True(t, errors.Is(err, ErrEmptyContent))

	_, err = NormalizeContent("\n\t")
	require.True(t, errors.Is(err, ErrEmptyContent))

	got, err := NormalizeContent("  hi there ")
	require.NoError(t, err)
	require.Equal(t, "hi there", got)
}
