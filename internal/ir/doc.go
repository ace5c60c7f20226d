// Package ir provides the foundational types shared by every tabq package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the value model the
// bottom layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed interface; only the types in this package implement it
//   - Scalar values (Null, String, Number, Bool, Date) are comparable and are
//     used directly as inverted-index keys
//   - List only appears on the query side (the "in" and "><" operators) and
//     must never be stored in a Row
//   - Dates are UTC calendar days, stored as Unix milliseconds at midnight
package ir
