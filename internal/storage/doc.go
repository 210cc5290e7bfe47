// Package storage records finished runs and reads them back.
//
// Two backends share the Backend interface: FileStore writes a directory per
// run with metadata.json and telemetry.csv, and SQLStore keeps everything in
// one SQLite database through gorm. Telemetry is exchanged as a Series whose
// column layout is fixed by Columns.
package storage
