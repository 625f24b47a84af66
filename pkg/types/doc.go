// Package types defines the Database and Collection interfaces, the filter,
// update and cursor vocabulary shared by every storage engine, and the
// standard errors callers match with errors.Is.
//
// A caller obtains one Collection per logical entity from a Database and
// never learns which engine backs it: the SQLite backend emulates the
// document contract over fixed tables, the MongoDB backend maps it onto the
// native driver.
package types
