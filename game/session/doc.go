// Package session keeps Ludo game sessions in memory and, optionally, in
// durable storage.
//
// Manager maps session IDs to sessions under a RWMutex. IDs are
// case-insensitive; generated IDs are 4 hex characters and are checked
// against both memory and storage before use. A session evicted from memory
// (CleanupExpiredSessions, DeleteFromMemory) loads again from storage on the
// next Get.
//
// Two SessionPersistence backends exist:
//
//   - FilePersistence writes one indented JSON file per session.
//   - SQLitePersistence stores the same JSON in a `sessions` table.
//
// Both store the preset ID, the effective engine config and the full game
// state. Restoring goes through engine.SetState, so a tampered or corrupt
// record is refused rather than loaded.
//
// Usage:
//
//	store, err := session.OpenSQLitePersistence("ludo.db", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//	sess, err := manager.Create("", "classic", configMgr.GetDefault())
package session
