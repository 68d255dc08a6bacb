// Package tracker follows one conversion session over a progress stream and
// drives a render target from it.
//
// A Tracker owns exactly one Subscription. All message handling, view
// updates and the deferred result navigation run on a single loop goroutine,
// so handlers never overlap. The session ends once, on completion, on a
// transport or payload failure, or on disposal; the subscription is closed
// on whichever of those paths is reached first.
//
//	tr := tracker.New(sessionID, view.NewRenderer(doc, "progress-container"),
//		tracker.WithSource(sse.NewClient(baseURL, nil, logger)),
//		tracker.WithNavigator(nav),
//		tracker.WithPageURL(page),
//	)
//	if err := tr.Start(ctx); err != nil {
//		return err
//	}
//	<-tr.Done()
package tracker
