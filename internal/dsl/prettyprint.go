package dsl

// ToSource renders an AST node back to its canonical textual form, used
// for macro keys, trace logs, and near-miss/candidate debugging. Same
// output as n.String(), kept as a free function for callers that only
// hold a dsl.Node interface value and reach for a package-level verb.
func ToSource(n Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}
