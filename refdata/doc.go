// Package refdata provides read-only lookup tables for rail reference data:
// STANOX station names loaded from a caller-supplied reader, TD area names,
// train operating company names, and direction/line indicator descriptions.
package refdata
