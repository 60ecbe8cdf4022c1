// Package core defines the shared language of the leapmodel system.
//
// This package contains:
//   - The Model capability interface consumed by data-access layers
//   - Property implementation modes (Default, Extension, Singleton)
//   - Change-notification types (PropertyChangedFunc, Subscription, Notifier)
//   - The contract tag grammar shared by the runtime compiler and modelgen
//   - Contract errors
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
