// Package memory persists bounded per-conversation chat history.
//
// Persistence model:
//   - One JSON file maps conversation keys to ordered turn arrays.
//   - Each conversation keeps at most MaxTurns turns; oldest are evicted first.
//   - The file is read in full at startup and rewritten in full after each
//     mutation. The store is the only writer of its file.
package memory
