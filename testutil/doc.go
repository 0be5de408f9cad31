// Package testutil provides testing utilities for vstore.
//
// This package is intended for use in tests and examples only.
//
// # Release Directories
//
// ReleaseDir creates an index root and an artifacts root under t.TempDir and
// seeds files into them:
//
//	rd := testutil.NewReleaseDir(t)
//	rd.AddFiles("jobs/web", "monit", "spec")
//	s, _ := vstore.Open(rd.IndexPath("packages"), rd.ArtifactsDir)
//
// # Random Payloads
//
//	rng := testutil.NewRNG(seed)
//	payload := rng.Payload(4096)
//	path := rd.WritePayload(payload)
package testutil
