// Package feature computes per-point local shape descriptors for oriented
// point clouds: the 33-bin Fast Point Feature Histogram (FPFH) and its
// 41-bin colour extension (CFPFH), which appends an 8-bin histogram over a
// fixed palette of reference colours.
//
// Computation runs in two data-parallel passes separated by one barrier:
//
//  1. Simplified histograms (SPFH / CSPFH): for each point, the pair
//     features between it and each neighbour are binned into three 11-bin
//     percentage histograms (alpha, phi, theta), plus the colour bins.
//  2. Refinement: each point's own simplified histogram is added to the
//     inverse-squared-distance weighted, rescaled sum of its neighbours'
//     simplified histograms.
//
// Every task in a pass writes only its own column of the feature matrix,
// so no locking is needed. Missing normals (or colours, for CFPFH) are not
// errors: a diagnostic is logged and an all-zero matrix of the expected
// shape is returned.
package feature
