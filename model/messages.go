package model

// MessageKey 面向用户的提示文案
type MessageKey string

const (
	MsgUploadImage     MessageKey = "upload_image"
	MsgFileTooLarge    MessageKey = "file_too_large"
	MsgUnsupportedType MessageKey = "unsupported_type"
	MsgDecodeFailed    MessageKey = "decode_failed"
	MsgBadMarks        MessageKey = "bad_marks"
	MsgBadParams       MessageKey = "bad_params"
	MsgMissingImage    MessageKey = "missing_image"
	MsgEmptySeedClass  MessageKey = "empty_seed_class"
	MsgSeedOutside     MessageKey = "seed_outside"
	MsgInvalidConfig   MessageKey = "invalid_config"
	MsgQueueFull       MessageKey = "queue_full"
	MsgSegmentFailed   MessageKey = "segment_failed"
	MsgSegmentDone     MessageKey = "segment_done"
	MsgSegmentCached   MessageKey = "segment_cached"
	MsgKeyMissing      MessageKey = "key_missing"
	MsgNotFound        MessageKey = "not_found"
	MsgQueryFailed     MessageKey = "query_failed"
	MsgQueryDone       MessageKey = "query_done"
	MsgRenderFailed    MessageKey = "render_failed"
	MsgImageReady      MessageKey = "image_ready"
)

// DefaultLanguage 未协商出语言时使用西班牙语
const DefaultLanguage = "es"

var messages = map[string]map[MessageKey]string{
	"es": {
		MsgUploadImage:     "Por favor carga una imagen primero",
		MsgFileTooLarge:    "El archivo supera el tamaño máximo",
		MsgUnsupportedType: "Tipo de archivo no soportado",
		MsgDecodeFailed:    "No se pudo leer la imagen",
		MsgBadMarks:        "Marcas inválidas",
		MsgBadParams:       "Parámetros inválidos",
		MsgMissingImage:    "No hay imagen para segmentar",
		MsgEmptySeedClass:  "Marca al menos un punto de objeto y uno de fondo",
		MsgSeedOutside:     "Hay marcas fuera de la imagen",
		MsgInvalidConfig:   "Configuración de segmentación inválida",
		MsgQueueFull:       "La cola de procesamiento está llena, inténtalo más tarde",
		MsgSegmentFailed:   "La segmentación falló",
		MsgSegmentDone:     "Segmentación completada",
		MsgSegmentCached:   "Segmentación completada (desde caché)",
		MsgKeyMissing:      "Falta la clave del resultado",
		MsgNotFound:        "Resultado no encontrado",
		MsgQueryFailed:     "La consulta falló",
		MsgQueryDone:       "Consulta completada",
		MsgRenderFailed:    "No se pudo generar la vista previa",
		MsgImageReady:      "Imagen cargada, marca el objeto y el fondo",
	},
	"en": {
		MsgUploadImage:     "Please upload an image first",
		MsgFileTooLarge:    "File exceeds the maximum size",
		MsgUnsupportedType: "Unsupported file type",
		MsgDecodeFailed:    "Could not read the image",
		MsgBadMarks:        "Invalid marks",
		MsgBadParams:       "Invalid parameters",
		MsgMissingImage:    "No image to segment",
		MsgEmptySeedClass:  "Mark at least one object point and one background point",
		MsgSeedOutside:     "Some marks lie outside the image",
		MsgInvalidConfig:   "Invalid segmentation settings",
		MsgQueueFull:       "Processing queue is full, please retry later",
		MsgSegmentFailed:   "Segmentation failed",
		MsgSegmentDone:     "Segmentation completed",
		MsgSegmentCached:   "Segmentation completed (from cache)",
		MsgKeyMissing:      "Result key is missing",
		MsgNotFound:        "Result not found",
		MsgQueryFailed:     "Query failed",
		MsgQueryDone:       "Query completed",
		MsgRenderFailed:    "Could not render the preview",
		MsgImageReady:      "Image loaded, mark the object and the background",
	},
}

// Message 返回指定语言的文案，未知语言回退到默认语言
func Message(lang string, key MessageKey) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[DefaultLanguage]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return string(key)
}
