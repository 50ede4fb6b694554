// Package geometry holds the oriented, optionally coloured point cloud that
// descriptor computation consumes, plus the preparation steps applied to it
// beforehand: PCA normal estimation, normal orientation and rigid transforms.
//
// Normals and colours are all-or-nothing channels: a cloud either carries
// one entry per point or none at all.
package geometry
