// Package monitor runs the seat polling loop.
//
// A Monitor repeatedly fetches the timetable, extracts the watched section's seat
// counts and evaluates whether a seat is open. It notifies only when the section goes
// from not open (closed or not yet seen) to open, so a seat that stays open produces one
// alert. Failed cycles back off exponentially up to a cap and recover to the base
// interval after the next success. The loop is strictly sequential and stops promptly
// when its context is cancelled, including mid-sleep.
package monitor
