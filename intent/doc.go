// Package intent classifies query text into a coarse response shape.
//
// Classification is a deterministic weighted-keyword scan, not a model
// call: it is cheap, explainable, and avoids an extra generation-service
// round trip purely to route formatting instructions. Each intent maps
// to a fixed instruction and format hint consumed by the prompt builder.
package intent
