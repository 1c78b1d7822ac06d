// Package design computes RBJ cookbook highpass coefficients for the
// detector's pre-analysis filter.
package design
