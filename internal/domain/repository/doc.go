// Package repository define las entidades del broker y los contratos de
// persistencia que los stores (pg, memory) deben implementar.
//
// Las interfaces son deliberadamente angostas: el core solo lee usuarios
// (el alta/CRUD de perfiles vive fuera de este servicio) y muta únicamente
// challenges, grants y el secreto cifrado del tenant.
package repository
