package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry published by a user, stored in MongoDB.
type Product struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	UserID      string             `json:"usuario"     bson:"user_id"`
	Nombre      string             `json:"nombre"      bson:"nombre"`
	Precio      float64            `json:"precio"      bson:"precio"`
	Descripcion string             `json:"descripcion" bson:"descripcion"`
	ImagenURL   string             `json:"imagen"      bson:"imagen_url"`
	CreatedAt   time.Time          `json:"created_at"  bson:"created_at"`
}

// CreateProductRequest is the JSON body for POST /api/productos.
type CreateProductRequest struct {
	Nombre      string  `json:"nombre"`
	Precio      float64 `json:"precio"`
	Descripcion string  `json:"descripcion"`
	ImagenURL   string  `json:"imagenUrl"`
	UserID      string  `json:"usuario"`
}
