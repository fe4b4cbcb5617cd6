// Package ux persists what Kinship learns about the user between runs.
//
// The preferences file records:
//
//   - Whether onboarding has been completed, and when
//   - The channels and priority contacts chosen during onboarding
//   - The reply tone, emoji usage and forbidden words
//   - Simple local usage counters (sessions, chats, replies)
//
// A missing file means a first run: onboarding is shown and defaults apply.
// Writes are best effort from the UI's point of view; callers log failures.
package ux
