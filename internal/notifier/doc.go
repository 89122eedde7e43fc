// Package notifier delivers seat-open alerts to one or more channels.
//
// Every channel implements Notifier. Multi fans a Message out to a set of named
// channels, running each one independently: a failing or panicking channel is logged as
// a DeliveryError and never stops the others or the caller. Channels include a local
// desktop alert, an ntfy topic push, SMTP email and a dry-run printer; Delayed wraps any
// channel to deliver later in the background.
package notifier
