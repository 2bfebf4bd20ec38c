// Package assemble gathers and validates the inputs a demand cycle needs:
// the category's historical demand series and the store attribute table.
// It separates where data comes from (the Loader) from what a valid stage
// input looks like (the Assembler), so the workflow can run against fixture
// data in tests and a warehouse-backed loader in production without changes.
package assemble
