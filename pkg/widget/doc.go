// Package widget holds the state machine behind the chat widget: the ordered
// conversation with its single in-flight question, the panel visibility, and
// the Widget that ties them to a Sender.
//
// The package does no I/O of its own and uses no locks. A host (the
// bubbletea program in pkg/ui, the line REPL in pkg/lineui) mutates it from
// one event loop, runs Exchange.Run elsewhere, and hands the Resolution back
// through Widget.Apply:
//
//	ex := w.SubmitInput()
//	if ex != nil {
//		go func() { results <- ex.Run(ctx) }()
//	}
//	// later, on the event loop
//	w.Apply(<-results)
//
// A reset bumps the conversation epoch; resolutions stamped with an older
// epoch are dropped so a late answer never lands in a fresh conversation.
package widget
