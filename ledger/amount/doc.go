// Package amount parses and formats fixed-precision monetary amounts.
//
// Amounts carry exactly Scale fractional digits and are backed by
// shopspring/decimal, so balance arithmetic never touches binary floating point.
package amount
