// Package batch drives the per-product flow: fetch releases, select a
// build, download it and optionally extract it.
//
// Products run one after another. Any failure is recorded in that
// product's Result and the batch moves on, so a Report always holds one
// Result per requested product.
package batch
