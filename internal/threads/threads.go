// Package threads turns flat comment lists into reply trees.
package threads

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emilythestrangee/insight/backend/internal/models"
)

var (
	// ErrEmptyContent is returned for blank comments and replies.
	ErrEmptyContent = errors.New("empty content")
	// ErrOrphanReply marks a reply whose parent is not in the working set.
	ErrOrphanReply = errors.New("orphan reply")
)

// OrphanReplyError is a non-fatal warning: the reply is kept as a top-level node.
type OrphanReplyError struct {
	CommentID int64
	ParentID  int64
}

func (e *OrphanReplyError) Error() string {
	return fmt.Sprintf("comment %d: parent %d is not in the thread", e.CommentID, e.ParentID)
}

func (e *OrphanReplyError) Unwrap() error {
	return ErrOrphanReply
}

// NormalizeContent trims surrounding whitespace and rejects blank content.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

// Thread is the reply tree of one post.
type Thread struct {
	Roots []*models.Comment
	// Orphans lists replies that were kept at top level.
	Orphans []*OrphanReplyError

	index map[int64]*models.Comment
}

// NewThread returns an empty thread.
func NewThread() *Thread {
	return &Thread{
		Roots: []*models.Comment{},
		index: make(map[int64]*models.Comment),
	}
}

func (t *Thread) register(c *models.Comment) {
	if c.Replies == nil {
		c.Replies = []*models.Comment{}
	}
	if _, ok := t.index[c.ID]; !ok {
		t.index[c.ID] = c
	}
}

// Len returns the number of comments in the thread.
func (t *Thread) Len() int {
	return len(t.index)
}

// Build assembles flat into a tree. Siblings keep their relative order from
// flat. Replies whose parent is missing, or whose parent chain loops back to
// themselves, are kept as roots and reported in Thread.Orphans. The input is
// not modified; building the same input twice gives equal trees.
func Build(flat []*models.Comment) *Thread {
	nodes := make([]*models.Comment, len(flat))
	parentOf := make(map[int64]*int64, len(flat))
	for i, c := range flat {
		cp := *c
		cp.Replies = nil
		nodes[i] = &cp
		if _, ok := parentOf[cp.ID]; !ok {
			parentOf[cp.ID] = cp.ParentCommentID
		}
	}

	inCycle := cycleMembers(parentOf)

	t := NewThread()
	for _, c := range nodes {
		t.register(c)
	}

	for _, c := range nodes {
		if c.ParentCommentID == nil {
			t.Roots = append(t.Roots, c)
			continue
		}

		parentID := *c.ParentCommentID
		_, known := parentOf[parentID]
		if !known || inCycle[c.ID] {
			t.Roots = append(t.Roots, c)
			t.Orphans = append(t.Orphans, &OrphanReplyError{CommentID: c.ID, ParentID: parentID})
			continue
		}

		parent := t.index[parentID]
		parent.Replies = append(parent.Replies, c)
	}

	return t
}

const (
	unvisited = iota
	visiting
	done
)

// cycleMembers returns the ids that sit on a parent cycle. Every id is
// walked once: a walk stops at a root, an unknown parent or an id resolved
// by an earlier walk.
func cycleMembers(parentOf map[int64]*int64) map[int64]bool {
	state := make(map[int64]int, len(parentOf))
	inCycle := make(map[int64]bool)

	var path []int64
	for id := range parentOf {
		if state[id] != unvisited {
			continue
		}

		path = path[:0]
		cur := id
		for {
			switch state[cur] {
			case visiting:
				for i := len(path) - 1; i >= 0; i-- {
					inCycle[path[i]] = true
					if path[i] == cur {
						break
					}
				}
			case unvisited:
				state[cur] = visiting
				path = append(path, cur)
				if p := parentOf[cur]; p != nil {
					if _, known := parentOf[*p]; known {
						cur = *p
						continue
					}
				}
			}
			break
		}

		for _, n := range path {
			state[n] = done
		}
	}

	return inCycle
}
