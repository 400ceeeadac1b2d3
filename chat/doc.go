// Package chat adapts a Twitch IRC connection to the classification
// pipeline's host interface.
//
// The Client joins the configured channel, delivers every channel
// message as a pipeline event, and renders surviving events to the
// console: the pipeline re-emits annotated text through the host,
// ignored events are suppressed, and everything else prints unmodified.
// Named display surfaces (for redirected caught messages) render as
// tagged console lines.
//
// Credentials: the IRC client requires a bot username and an OAuth
// token with chat:read scope. Anonymous read-only connections work with
// the "justinfan" convention when no token is configured.
package chat
