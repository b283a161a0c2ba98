// Package nstest provides transient Linux kernel namespaces and related
// fixtures to the test suites of this module. It leverages the Ginkgo
// testing framework with Gomega matchers and thus is of no use to
// production consumers.
package nstest
