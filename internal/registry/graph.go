package registry

import "regexp"

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// findCycle returns one cycle path ([a b c a]) or nil when the graph is a DAG.
//
// It runs Tarjan's strongly connected components over the edges
// module → dependency. Any component with more than one member is a cycle;
// self-loops are rejected earlier by checkEdges. Nodes are visited in
// declaration order so the reported cycle is deterministic.
func findCycle(modules []Descriptor, index map[string]int) []string {
	var (
		counter int
		stack   []string
		indices = make(map[string]int, len(modules))
		lowlink = make(map[string]int, len(modules))
		onStack = make(map[string]bool, len(modules))
		found   []string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range modules[index[v]].Depends {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 && found == nil {
				found = cyclePath(scc, modules, index)
			}
		}
	}

	for _, m := range modules {
		if _, visited := indices[m.ID]; !visited {
			strongConnect(m.ID)
		}
	}
	return found
}

// cyclePath returns a closed path through the SCC starting and ending at its
// earliest-declared member. It is a depth-first search over edges inside the
// SCC that backtracks out of dead ends, so every step is a real edge.
func cyclePath(scc []string, modules []Descriptor, index map[string]int) []string {
	members := make(map[string]bool, len(scc))
	start := scc[0]
	for _, id := range scc {
		members[id] = true
		if index[id] < index[start] {
			start = id
		}
	}

	visited := map[string]bool{start: true}
	var walk func(path []string) []string
	walk = func(path []string) []string {
		deps := modules[index[path[len(path)-1]]].Depends
		for _, dep := range deps {
			if dep == start {
				return append(path, start)
			}
		}
		for _, dep := range deps {
			if !members[dep] || visited[dep] {
				continue
			}
			visited[dep] = true
			if found := walk(append(path, dep)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk([]string{start})
}

// topoOrder is Kahn's algorithm where, among ready modules, the one declared
// first always goes next.
func topoOrder(modules []Descriptor, index map[string]int) []string {
	pending := make([]int, len(modules)) // unresolved dependencies per module
	for i, m := range modules {
		pending[i] = len(m.Depends)
	}
	dependents := make([][]int, len(modules))
	for i, m := range modules {
		for _, dep := range m.Depends {
			d := index[dep]
			dependents[d] = append(dependents[d], i)
		}
	}

	done := make([]bool, len(modules))
	order := make([]string, 0, len(modules))
	for len(order) < len(modules) {
		next := -1
		for i := range modules {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break // unreachable for a validated DAG
		}
		done[next] = true
		order = append(order, modules[next].ID)
		for _, child := range dependents[next] {
			pending[child]--
		}
	}
	return order
}
