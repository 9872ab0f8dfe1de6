package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-run/braid/pkg/models"
)

func graph(nodes []string, edges [][2]string) *models.Workflow {
	wf := &models.Workflow{ID: "wf-1", Status: models.WorkflowStatusPublished}

	for _, id := range nodes {
		wf.Nodes = append(wf.Nodes, &models.WorkflowNode{ID: id, Type: models.NodeTypeSetVariable})
	}

	for i, edge := range edges {
		wf.Connections = append(wf.Connections, &models.Connection{
			ID:         string(rune('a' + i)),
			SourceNode: edge[0],
			TargetNode: edge[1],
		})
	}

	return wf
}

func indexOf(order []*models.WorkflowNode, id string) int {
	for i, node := range order {
		if node.ID == id {
			return i
		}
	}

	return -1
}

func TestExecutionOrder_PlacesNodesAfterPredecessors(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d.
	wf := graph([]string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	})

	order, err := ExecutionOrder(wf)
	require.NoError(t, err)
	require.Len(t, order, 4)

	for _, conn := range wf.Connections {
		assert.Less(t, indexOf(order, conn.SourceNode), indexOf(order, conn.TargetNode),
			"%s must run before %s", conn.SourceNode, conn.TargetNode)
	}
}

func TestExecutionOrder_TieBreakFollowsNodeArrayOrder(t *testing.T) {
	// Three independent roots; connections listed in reverse should not
	// affect the order.
	wf := graph([]string{"c", "a", "b", "sink"}, [][2]string{
		{"b", "sink"}, {"a", "sink"}, {"c", "sink"},
	})

	order, err := ExecutionOrder(wf)
	require.NoError(t, err)

	ids := make([]string, len(order))
	for i, node := range order {
		ids[i] = node.ID
	}

	assert.Equal(t, []string{"c", "a", "b", "sink"}, ids)
}

func TestExecutionOrder_CycleDetected(t *testing.T) {
	wf := graph([]string{"a", "b", "c"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
	})

	_, err := ExecutionOrder(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestExecutionOrder_UnknownNodeReference(t *testing.T) {
	wf := graph([]string{"a"}, [][2]string{{"a", "ghost"}})

	_, err := ExecutionOrder(wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestExecutionOrder_SingleNode(t *testing.T) {
	wf := graph([]string{"only"}, nil)

	order, err := ExecutionOrder(wf)
	require.NoError(t, err)
	require.Len(t, order, 1)
	assert.Equal(t, "only", order[0].ID)
}
