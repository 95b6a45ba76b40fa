// Package pipeline drives content builds.
//
// A build loads the host module image, bootstraps the marker ledger over
// it, restores the generated-type containers, then processes each asset
// of the project in build-file order:
//
//  1. import: read the source into an intermediate value and list the
//     files it depends on
//  2. cache check: skip the asset when its inputs hash to the cached
//     entry, its markers agree on the cached build id and every generated
//     type it recorded is still in the host module
//  3. process: turn the intermediate value into content, adding generated
//     types through the asset's container
//  4. write: serialize the content to its content file
//
// Every error inside steps 1 to 4 is reported as an Error message for the
// asset and the build moves on. Only failures of the build's own state
// (host image, cache database) abort the build.
//
// After the last asset, containers of build-files that left the project
// are emptied and the host image is saved in one transaction.
//
// Builds are single-threaded. The host module is not safe for concurrent
// use and one build owns it from load to save.
package pipeline
