// Package twitch talks to the Helix API with a captured user token.
//
// [Client] covers the calls needed to create clips: the current user, user
// lookup by login, the live check and clip creation. [Clipper] combines them
// with a [History] of created clips kept next to the token file, and refuses
// new clips while the channel is offline or within the cooldown after the
// previous clip.
package twitch
