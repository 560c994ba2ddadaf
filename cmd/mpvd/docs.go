// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           mpvd API
// @version         1.0
// @description     HTTP API for creating and controlling libmpv player instances.
//
// @contact.name   mpvd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
package main
