// Package msgfmt builds chat messages in Telegram HTML parse mode.
//
// The H type marks strings that are already safe to send with
// ParseMode="HTML"; everything user- or feed-derived must pass through
// Esc (or one of the wrappers) first.
package msgfmt
