// Package models defines the core domain models for worklog.
//
// # Models
//
//   - WorkRecord: one logged shift (date, worker, company, site, hours, memo)
//   - RecordInput: the payload accepted by create and update
//   - ChangeEvent: a "something changed" notification for a watched table
//   - User: a registered account (password or OAuth)
//   - ApprovalCode: a single-use code that gates registration
//
// # Design Principles
//
//  1. **One normalization step**: optional numeric fields are defaulted to
//     zero when a record is read or built from input, never at call sites.
//  2. **Explicit inputs**: mutations carry a RecordInput that is validated
//     once at the boundary and only holds fields the caller may change.
//  3. **IDs, not pointers**: relationships use ID strings.
//  4. **Calendar dates have no zone**: Date is a plain year/month/day triple.
package models
