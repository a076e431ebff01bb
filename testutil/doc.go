// Package testutil provides testing utilities for the matching pipeline.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating synthetic descriptors and keypoint
// positions, computing exact nearest neighbors, and verifying search
// recall.
//
// # Synthetic Descriptors
//
//	rng := testutil.NewRNG(seed)
//	data := rng.GaussianDescriptors(500, 128) // float32, row-major
//	bytes := rng.ByteDescriptors(500, 128)    // SIFT-like uint8
//	near := rng.Jitter(data, 0.05)            // noisy copy, stays nearest
//
// # Exact Search (Ground Truth)
//
//	results := testutil.BruteForceKNN(db, query, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(exactResults, approxResults)
package testutil
