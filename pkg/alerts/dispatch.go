package alerts

import "context"

// Result is the outcome of a single notifier call.
type Result struct {
	Notifier string
	ID       string
	Err      error
}

// OK reports whether the notification was delivered.
func (r Result) OK() bool { return r.Err == nil }

// Dispatch sends alert through every notifier in order. A failing notifier
// never prevents the next one from running.
func Dispatch(ctx context.Context, notifiers []Notifier, alert Alert) []Result {
	results := make([]Result, 0, len(notifiers))
	for _, n := range notifiers {
		id, err := n.Send(ctx, alert)
		results = append(results, Result{Notifier: n.Name(), ID: id, Err: err})
	}
	return results
}
