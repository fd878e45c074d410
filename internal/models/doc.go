// Package models defines the core domain models for the settle-up ledger.
//
// # Models
//
//   - User: Registered account; members of groups are referenced by User.ID
//   - Group: A set of members who share expenses
//   - Expense: A payment made by one member, divided into Splits among participants
//   - Settlement: An immutable record of a payment between two members
//   - Balance: One edge of a group's simplified "who owes whom" snapshot
//
// # Design Principles
//
// 1. **Exact money**: all amounts are decimal.Decimal values with two decimal places
// 2. **Avoid circular references**: relationships are expressed with ID strings, not pointers
// 3. **Derived state is replaceable**: Balance rows are regenerated from expenses on every
// recompute, so nothing else may hold on to a Balance ID across requests
package models
