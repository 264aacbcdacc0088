// Package cryptoalg defines the processor interfaces the providers build their algorithm capabilities on. A
// processor performs one family of primitive operations over raw byte slices or native key objects; purpose
// checks and key lifecycle are handled by the algorithm package, not here.
package cryptoalg
