// Package vector is the public entry point to one robot.
//
// Robot ties the pieces together: it loads credentials from a
// credential.Store, owns the session.Manager, and exposes the event
// dispatcher, the behaviour control arbiter and the unary state queries.
//
//	r := vector.New(vector.Config{Store: store})
//	if err := r.Connect(ctx, "Vector-A1B2", ""); err != nil {
//	    return err
//	}
//	defer r.Disconnect()
//
//	r.Events().OnWakeWord(func(w robot.WakeWord) { ... })
//	go r.StartEventListening(ctx)
//	go r.SuppressPersonality(ctx, false)
//
// Every unary query maps a non-success response status to a
// *gateway.CommunicationFault carrying the code.
package vector
