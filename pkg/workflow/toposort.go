package workflow

import (
	"fmt"
	"sort"

	"github.com/braid-run/braid/pkg/models"
)

// ExecutionOrder computes a topological order of the workflow graph with
// Kahn's algorithm. The ready queue is FIFO and is seeded and fed in
// workflow node-array order, which makes the order deterministic for a
// given workflow document. A graph containing a cycle returns an error.
func ExecutionOrder(w *models.Workflow) ([]*models.WorkflowNode, error) {
	inDegree := make(map[string]int, len(w.Nodes))
	for _, node := range w.Nodes {
		inDegree[node.ID] = 0
	}

	successors := make(map[string][]string, len(w.Nodes))

	for _, conn := range w.Connections {
		if _, ok := inDegree[conn.SourceNode]; !ok {
			return nil, fmt.Errorf("connection %s references unknown source node %s", conn.ID, conn.SourceNode)
		}

		if _, ok := inDegree[conn.TargetNode]; !ok {
			return nil, fmt.Errorf("connection %s references unknown target node %s", conn.ID, conn.TargetNode)
		}

		inDegree[conn.TargetNode]++
		successors[conn.SourceNode] = append(successors[conn.SourceNode], conn.TargetNode)
	}

	nodeIndex := make(map[string]int, len(w.Nodes))
	for i, node := range w.Nodes {
		nodeIndex[node.ID] = i
	}

	ready := make([]*models.WorkflowNode, 0, len(w.Nodes))
	for _, node := range w.Nodes {
		if inDegree[node.ID] == 0 {
			ready = append(ready, node)
		}
	}

	order := make([]*models.WorkflowNode, 0, len(w.Nodes))

	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		var unlocked []*models.WorkflowNode

		for _, successorID := range successors[node.ID] {
			inDegree[successorID]--
			if inDegree[successorID] == 0 {
				unlocked = append(unlocked, w.NodeByID(successorID))
			}
		}

		// Nodes unlocked by the same removal enqueue in node-array order,
		// keeping the order independent of connection ordering.
		sort.Slice(unlocked, func(i, j int) bool {
			return nodeIndex[unlocked[i].ID] < nodeIndex[unlocked[j].ID]
		})

		ready = append(ready, unlocked...)
	}

	if len(order) < len(w.Nodes) {
		return nil, fmt.Errorf("workflow %s contains a cycle", w.ID)
	}

	return order, nil
}
