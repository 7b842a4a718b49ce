package attractions

// Demo returns the New York demo dataset. Each call returns a fresh slice.
func Demo() []Attraction {
	return []Attraction{
		{
			ID: "1", Name: "Statue of Liberty", Category: CategoryLandmarks,
			Rating: 4.8, Reviews: 12453, Price: 25, Duration: "3-4 hours",
			Image: "/statue-of-liberty.png", Coordinate: Coordinate{Lat: 40.6892, Lng: -74.0445},
		},
		{
			ID: "2", Name: "Central Park", Category: CategoryParks,
			Rating: 4.9, Reviews: 8932, Price: 0, Duration: "2-6 hours",
			Image: "/central-park-autumn.png", Coordinate: Coordinate{Lat: 40.7829, Lng: -73.9654},
		},
		{
			ID: "3", Name: "Metropolitan Museum of Art", Category: CategoryMuseums,
			Rating: 4.7, Reviews: 15678, Price: 30, Duration: "3-5 hours",
			Image: "/metropolitan-museum-art.jpg", Coordinate: Coordinate{Lat: 40.7794, Lng: -73.9632},
		},
		{
			ID: "4", Name: "Times Square", Category: CategoryEntertainment,
			Rating: 4.5, Reviews: 9821, Price: 0, Duration: "1-2 hours",
			Image: "/times-square-night.png", Coordinate: Coordinate{Lat: 40.758, Lng: -73.9855},
		},
		{
			ID: "5", Name: "Brooklyn Bridge", Category: CategoryLandmarks,
			Rating: 4.8, Reviews: 11234, Price: 0, Duration: "1-2 hours",
			Image: "/brooklyn-bridge-cityscape.png", Coordinate: Coordinate{Lat: 40.7061, Lng: -73.9969},
		},
		{
			ID: "6", Name: "Empire State Building", Category: CategoryLandmarks,
			Rating: 4.6, Reviews: 13567, Price: 44, Duration: "2-3 hours",
			Image: "/empire-state-building.png", Coordinate: Coordinate{Lat: 40.7484, Lng: -73.9857},
		},
		{
			ID: "7", Name: "9/11 Memorial & Museum", Category: CategoryMuseums,
			Rating: 4.9, Reviews: 14892, Price: 33, Duration: "2-3 hours",
			Image: "/911-memorial-museum.jpg", Coordinate: Coordinate{Lat: 40.7115, Lng: -74.0134},
		},
		{
			ID: "8", Name: "Broadway Show", Category: CategoryEntertainment,
			Rating: 4.9, Reviews: 7654, Price: 120, Duration: "2-3 hours",
			Image: "/broadway-theater.png", Coordinate: Coordinate{Lat: 40.759, Lng: -73.9845},
		},
	}
}
